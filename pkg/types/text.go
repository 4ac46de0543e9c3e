package types

import "errors"

const (
	// DefaultMaxUsernameLength bounds usernames and avatars.
	DefaultMaxUsernameLength uint32 = 32
	// DefaultMaxBioLength bounds bios.
	DefaultMaxBioLength uint32 = 256
)

var (
	// ErrUsernameTooLong indicates a username or avatar exceeds MaxUsernameLength.
	ErrUsernameTooLong = errors.New("go-directory: username too long")
	// ErrBioTooLong indicates a bio exceeds MaxBioLength.
	ErrBioTooLong = errors.New("go-directory: bio too long")
)

// Limits carries the byte bounds applied when constructing bounded text. They
// are fixed when the service is built and never change at runtime.
type Limits struct {
	MaxUsernameLength uint32
	MaxBioLength      uint32
}

// DefaultLimits returns the stock bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxUsernameLength: DefaultMaxUsernameLength,
		MaxBioLength:      DefaultMaxBioLength,
	}
}

// Normalize fills zero bounds with defaults.
func (l Limits) Normalize() Limits {
	if l.MaxUsernameLength == 0 {
		l.MaxUsernameLength = DefaultMaxUsernameLength
	}
	if l.MaxBioLength == 0 {
		l.MaxBioLength = DefaultMaxBioLength
	}
	return l
}

// TextBound selects which configured limit applies to a BoundedText.
type TextBound interface {
	UsernameBound | BioBound
	maxLen(Limits) uint32
	tooLong() error
}

// UsernameBound applies MaxUsernameLength. Avatars reuse it.
type UsernameBound struct{}

func (UsernameBound) maxLen(l Limits) uint32 { return l.MaxUsernameLength }
func (UsernameBound) tooLong() error         { return ErrUsernameTooLong }

// BioBound applies MaxBioLength.
type BioBound struct{}

func (BioBound) maxLen(l Limits) uint32 { return l.MaxBioLength }
func (BioBound) tooLong() error         { return ErrBioTooLong }

// BoundedText is an immutable byte string whose length never exceeds the
// bound selected by B. Values with different bounds are distinct types.
type BoundedText[B TextBound] struct {
	value string
}

type (
	// Username is the unique handle stored in the username index.
	Username = BoundedText[UsernameBound]
	// Avatar shares the username bound.
	Avatar = BoundedText[UsernameBound]
	// Bio is the free-form profile text.
	Bio = BoundedText[BioBound]
)

// NewBoundedText validates raw against the bound B under limits.
func NewBoundedText[B TextBound](limits Limits, raw string) (BoundedText[B], error) {
	var bound B
	if uint64(len(raw)) > uint64(bound.maxLen(limits)) {
		return BoundedText[B]{}, bound.tooLong()
	}
	return BoundedText[B]{value: raw}, nil
}

// NewUsername validates a username.
func NewUsername(limits Limits, raw string) (Username, error) {
	return NewBoundedText[UsernameBound](limits, raw)
}

// NewAvatar validates an avatar reference.
func NewAvatar(limits Limits, raw string) (Avatar, error) {
	return NewBoundedText[UsernameBound](limits, raw)
}

// NewBio validates a bio.
func NewBio(limits Limits, raw string) (Bio, error) {
	return NewBoundedText[BioBound](limits, raw)
}

// RestoreText rebuilds a value read back from storage. Persisted values were
// validated on the way in, so no bound check runs here.
func RestoreText[B TextBound](raw string) BoundedText[B] {
	return BoundedText[B]{value: raw}
}

// String returns the text.
func (t BoundedText[B]) String() string { return t.value }

// Bytes returns a copy of the underlying bytes.
func (t BoundedText[B]) Bytes() []byte { return []byte(t.value) }

// Len returns the length in bytes.
func (t BoundedText[B]) Len() int { return len(t.value) }

// IsEmpty reports whether the text is the empty default.
func (t BoundedText[B]) IsEmpty() bool { return t.value == "" }

// Ptr returns a pointer to a copy of t.
func (t BoundedText[B]) Ptr() *BoundedText[B] { return &t }
