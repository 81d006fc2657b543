// Package password hashes and verifies credentials with Argon2id and enforces
// the length policy applied at registration.
//
// # Output format
//
// Hashes are PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Salt and hash are standard base64. Parameters are read back from the string
// on verify, so hashes produced under older settings keep verifying after the
// configuration changes; [Argon2.NeedsUpgrade] reports when a rehash is due.
//
// # What this package must NOT do
//
//   - Store or log plaintext passwords.
//   - Import any other authcore package.
package password
