// Package password covers the credential half of login: argon2id hashing
// with PHC-encoded parameters and the registration password policy.
package password
