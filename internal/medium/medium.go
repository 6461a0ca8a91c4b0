// ABOUTME: Persistence medium contract consumed by the scoped store
// ABOUTME: Defines the Read/Write/Delete/WipeAll interface shared by all media

package medium

// Medium is a flat string key/value persistence layer. The scoped store
// composes two of these: a durable primary and a fallback that serves
// reads and writes when the primary fails.
//
// Read reports absence via ok=false with a nil error; a non-nil error
// means the medium itself failed and the caller may try another medium.
type Medium interface {
	Read(key string) (value string, ok bool, err error)
	Write(key, value string) error
	Delete(key string) error
	WipeAll() error
}
