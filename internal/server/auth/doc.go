// Package auth holds the cryptographic and authority primitives of the
// service: the HS256 token codec, bcrypt credential verification, the
// role→permission table, and the request identity carried in a context.
//
// Nothing here touches storage; revocation lives in the tokens repository
// and orchestration in the services package.
package auth
