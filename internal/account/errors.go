package account

import "errors"

var (
	ErrPhoneOAuthBound = errors.New("phone belongs to an account already bound to an oauth identity")
	ErrPhoneCanMerge   = errors.New("phone belongs to an unbound account; confirm merge")
	ErrIdentityBound   = errors.New("oauth identity already bound to an account")
)

// Error codes returned by bind-phone.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeBindingNotNeeded   = "BINDING_NOT_NEEDED"
	CodePhoneTakenOAuth    = "PHONE_TAKEN_OAUTH_BOUND"
	CodePhoneTakenCanMerge = "PHONE_TAKEN_CAN_MERGE"
	CodeOAuthAlreadyBound  = "OAUTH_ALREADY_BOUND"
	CodeBindFailed         = "BIND_FAILED"
)
