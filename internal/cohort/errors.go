package cohort

import "errors"

var (
	// ErrUnexpectedStatus is returned when the service answers with a status the client does not expect.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrNotSettled is returned when the stored records do not reach the submitted count in time.
	ErrNotSettled = errors.New("records not settled")
	// ErrVerification is returned when a fetched curve or chart breaks an invariant.
	ErrVerification = errors.New("verification failed")
	// ErrInvalidConfig is returned for unusable seeder settings.
	ErrInvalidConfig = errors.New("invalid cohort config")
)
