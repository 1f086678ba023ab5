package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON             = "INVALID_JSON"
	ErrCodeInvalidQuery            = "INVALID_QUERY"
	ErrCodeMissingField            = "MISSING_FIELD"
	ErrCodeInvalidCommandType      = "INVALID_COMMAND_TYPE"
	ErrCodeShippingDetails         = "SHIPPING_DETAILS_REQUIRED"
	ErrCodeNoContactPhone          = "NO_CONTACT_PHONE"
	ErrCodeInvalidQuantity         = "INVALID_QUANTITY"
	ErrCodeInvalidPrice            = "INVALID_PRICE"
	ErrCodeUnsupportedCommandType  = "UNSUPPORTED_COMMAND_TYPE"
	ErrCodeCommandNotFound         = "COMMAND_NOT_FOUND"
	ErrCodeRestaurantNotFound      = "RESTAURANT_NOT_FOUND"
	ErrCodeInvalidConfirmationCode = "INVALID_CONFIRMATION_CODE"
	ErrCodeMissingConfirmationCode = "MISSING_CONFIRMATION_CODE"
	ErrCodePromoUsageExceeded      = "PROMO_USAGE_EXCEEDED"
	ErrCodeUnknownPromoCode        = "UNKNOWN_PROMO_CODE"
	ErrCodeImmutableField          = "IMMUTABLE_FIELD"
	ErrCodeUnknownCounter          = "UNKNOWN_COUNTER"
	ErrCodeUnauthorised            = "UNAUTHORIZED"
	ErrCodeForbidden               = "FORBIDDEN"
	ErrCodeInternalError           = "INTERNAL_ERROR"
)

// DomainError is a business rule violation reported to the client.
type DomainError struct {
	Code    string
	Message string
	Details map[string]string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so that errors carrying details still
// compare equal to the sentinel they were derived from.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// WithDetails returns a copy of the error carrying per-field details.
func (e *DomainError) WithDetails(details map[string]string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidJSON             = NewDomainError(ErrCodeInvalidJSON, "Invalid request body")
	ErrInvalidQuery            = NewDomainError(ErrCodeInvalidQuery, "Invalid query parameter")
	ErrMissingField            = NewDomainError(ErrCodeMissingField, "You need to provide item list details")
	ErrInvalidCommandType      = NewDomainError(ErrCodeInvalidCommandType, "Command type must be one of delivery, on_site or takeaway")
	ErrShippingDetails         = NewDomainError(ErrCodeShippingDetails, "Shipping details not provided")
	ErrNoContactPhone          = NewDomainError(ErrCodeNoContactPhone, "No valid related user nor customer found in request body")
	ErrInvalidQuantity         = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidPrice            = NewDomainError(ErrCodeInvalidPrice, "Prices cannot be negative")
	ErrUnsupportedCommandType  = NewDomainError(ErrCodeUnsupportedCommandType, "The given restaurant doesn't support this command type")
	ErrCommandNotFound         = NewDomainError(ErrCodeCommandNotFound, "Command not found")
	ErrRestaurantNotFound      = NewDomainError(ErrCodeRestaurantNotFound, "Restaurant not found")
	ErrInvalidConfirmationCode = NewDomainError(ErrCodeInvalidConfirmationCode, "Invalid confirmation code")
	ErrMissingConfirmationCode = NewDomainError(ErrCodeMissingConfirmationCode, "No code provided")
	ErrPromoUsageExceeded      = NewDomainError(ErrCodePromoUsageExceeded, "cannot use in code promo")
	ErrUnknownPromoCode        = NewDomainError(ErrCodeUnknownPromoCode, "Unknown promo code")
	ErrImmutableField          = NewDomainError(ErrCodeImmutableField, "Items and menus cannot change once the command is confirmed")
	ErrUnknownCounter          = NewDomainError(ErrCodeUnknownCounter, "Unknown counter")
	ErrUnauthorised            = NewDomainError(ErrCodeUnauthorised, "You cannot modify commands that don't belong to you unless you have admin access")
	ErrForbidden               = NewDomainError(ErrCodeForbidden, "You don't have enough permission to access this service")
)
