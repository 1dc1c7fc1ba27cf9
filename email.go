package accounts

import "log"

// EmailSender dispatches account emails. Implementations receive the
// raw one-time code and are responsible for building the link the
// recipient clicks. Send failures must be distinguishable from store
// failures: the account mutation has already been persisted by the
// time a send runs and is never rolled back.
type EmailSender interface {
	SendVerificationEmail(to, name, code string) error
	SendPasswordResetEmail(to, name, code string) error
}

// ConsoleEmailSender is a development implementation that logs emails
// to the console instead of sending them.
type ConsoleEmailSender struct{}

func (c *ConsoleEmailSender) SendVerificationEmail(to, name, code string) error {
	log.Printf("\n=== EMAIL: Verification ===")
	log.Printf("To: %s (%s)", to, name)
	log.Printf("Code: %s", code)
	log.Printf("===========================\n")
	return nil
}

func (c *ConsoleEmailSender) SendPasswordResetEmail(to, name, code string) error {
	log.Printf("\n=== EMAIL: Password Reset ===")
	log.Printf("To: %s (%s)", to, name)
	log.Printf("Code: %s", code)
	log.Printf("==============================\n")
	return nil
}
