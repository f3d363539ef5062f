// credentialexchange
//
// Plumbing around resolved temporary credentials: the credential_process
// payload shape, validity probing against STS, output to stdout or a named
// section of the shared credentials file, and an OS secret-store cache used
// by the CLI between invocations.
package credentialexchange
