// Package staff manages the people staffed on events and their
// assignments.
//
// # Tenancy
//
// Every query is scoped to the tenant of the calling account through a
// correlated lookup on accounts, so a caller never reads or changes staff,
// events or assignments of another entreprise. Rows outside the tenant are
// reported as not found.
//
// # Assignments
//
// An assignment is a row of "Liste_staff" linking one staff member to one
// event. Assigning marks the staff member unavailable; removing an
// assignment marks them available again. Both steps of either change run in
// one transaction. A staff member is assigned at most once per event.
//
// AddWithAgence creates a staff member and, optionally, their first
// assignment atomically: when the event check or the insert fails nothing
// is written.
//
// # Availability windows
//
// AvailableBetween lists tenant staff with no assignment overlapping
// [start, end). An assignment without its own dates spans its event. A
// missing start or end on both is open-ended, so an undated assignment
// keeps the staff member busy in every window.
//
// # Agencies
//
// Agencies are shared across tenants and change rarely. AgencyCache keeps
// them in an expiring LRU; only positive existence checks are cached.
package staff
