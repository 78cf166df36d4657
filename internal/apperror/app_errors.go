package apperror

import "errors"

// Kind groups errors by how the gateway reports them.
type Kind string

const (
	KindAuth        Kind = "auth"
	KindNotFound    Kind = "not_found"
	KindRejected    Kind = "rejected"
	KindPersistence Kind = "persistence"
	KindInternal    Kind = "internal"
)

// Error is a classified application error. Values are compared by identity,
// so the package-level sentinels work with errors.Is.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (that *Error) Error() string {
	return that.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrUnauthorized = newError(KindAuth, "unauthorized", "unable to resolve user identity")

	ErrGameNotFound = newError(KindNotFound, "game_not_found", "game not found")
	ErrUserNotFound = newError(KindNotFound, "user_not_found", "user not found")

	ErrNotYourTurn          = newError(KindRejected, "not_your_turn", "it's not your turn")
	ErrGameNotActive        = newError(KindRejected, "game_not_active", "game is not active")
	ErrIllegalPosition      = newError(KindRejected, "illegal_position", "illegal position")
	ErrGameFinished         = newError(KindRejected, "game_finished", "game is already finished")
	ErrNotSeated            = newError(KindRejected, "not_seated", "user is not seated in this game")
	ErrGameFull             = newError(KindRejected, "game_full", "game has no free seats")
	ErrAlreadySeated        = newError(KindRejected, "already_seated", "user is already seated")
	ErrSpectatorsNotAllowed = newError(KindRejected, "spectators_not_allowed", "spectators are not allowed")
	ErrNotInRoom            = newError(KindRejected, "not_in_room", "user has not joined this game")
	ErrInvalidPayload       = newError(KindRejected, "invalid_payload", "invalid payload")
	ErrUnknownGameType      = newError(KindRejected, "unknown_game_type", "unknown game type")
	ErrMessageTooLong       = newError(KindRejected, "message_too_long", "message is too long")

	ErrPersistence = newError(KindPersistence, "persistence", "failed to persist game")
)

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first classified error in err's chain.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return string(KindInternal)
}

func IsRejected(err error) bool {
	return KindOf(err) == KindRejected
}
