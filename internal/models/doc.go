// Package models defines the core domain entities for Rupaya.
//
// Every persisted entity embeds Audit, which carries created/updated/deleted
// timestamps and the user ids responsible for each. A row with a non-zero
// DeletedAt is a tombstone: it is excluded from all normal reads but kept for
// referential history. Membership reactivation relies on this: a removed
// member's row is revived in place, never re-inserted.
//
// Entities:
//   - User: registered account, unique by email
//   - Group: a circle of people sharing expenses
//   - GroupMember: join row between group and user, with an ADMIN/MEMBER role
//   - Bill: a single expense inside a group, split EQUAL or EXACT
//   - BillShare: one participant's portion of a bill, with a paid flag
//
// Relationships are expressed as id strings rather than pointers to avoid
// circular references; read paths hydrate related rows explicitly.
package models
