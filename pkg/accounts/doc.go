// Package accounts handles sign-up, login and the management of operator
// accounts within a tenant.
//
// Roles are ordered super_admin > admin > super_user > user. A caller may
// only create, update or delete accounts whose role sits below its own,
// except for its own row. Only a super_admin sees accounts across tenants.
//
// Login issues a signed session token, stores it on the account row and
// sets it as the "token" cookie. Temporary accounts can only log in inside
// their validity window.
package accounts
