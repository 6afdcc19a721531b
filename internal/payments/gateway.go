// Package payments is the boundary to the external payment processor.
// The core only depends on the Gateway capability set; the concrete
// processor is substitutable (tests use a deterministic fake).
package payments

import "context"

type Gateway interface {
	// CreateIntent registers a not-yet-captured payment of amountMinor
	// (smallest currency unit) with the processor and returns its id.
	CreateIntent(ctx context.Context, amountMinor int64, currency, receipt string) (string, error)

	// VerifySignature checks the processor's keyed-MAC over the
	// (intent, payment) pair against the signature it handed the client.
	VerifySignature(intentID, paymentID, signature string) bool

	// KeyID is the public key identifier browsers need to open the
	// processor's checkout widget.
	KeyID() string
}
