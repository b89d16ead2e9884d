// Package federated verifies external identity-provider credentials for
// the engine's federated login path.
//
// The only implementation is OpenID Connect: the client obtains an ID
// token from the provider (Google by default) and presents it as the
// credential. Verification checks signature, issuer, audience, and
// expiry against the provider's published keys, then maps the identity
// claims onto the engine's neutral shape. An optional authorization-code
// helper covers server-side redirect flows.
package federated
