// Package auth holds the account role model, the authorization policy and
// session token plumbing.
//
// # Role table
//
// One declarative table decides which account roles a caller may create,
// update or delete:
//
//	super_admin -> user, super_user, admin
//	admin       -> user, super_user
//	super_user  -> user
//	user        -> (none, "missing privilege")
//
// AcceptedRoles reads the table. The account store turns its result into the
// SQL predicate
//
//	"ID" = $id AND (role = ANY($roles) OR "ID" = $caller)
//	  AND entreprise_id = (SELECT entreprise_id FROM accounts WHERE "ID" = $caller)
//
// so a caller can always edit their own row, and never a row of another
// tenant.
//
// # Sessions
//
// SessionIssuer signs HS256 tokens carrying {id, role}. Verify is a pure
// function of the token and the key; the key comes from configuration.
//
//	issuer, _ := auth.NewSessionIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.SessionTTL)
//	token, expires, _ := issuer.Issue(auth.Identity{AccountID: 1, Role: auth.RoleAdmin})
//	id, err := auth.Verify(token, issuer.Key())
//
// Passwords are stored as bcrypt hashes (HashPassword, VerifyPassword).
package auth
