// Package models defines the core domain models for the group ledger.
//
// # Entities
//
//   - Group: a set of members sharing expenses, owned by its creator
//   - Membership: a user's pointer to a group they belong to (with a role)
//   - Expense: an append-only record of one payment split among members
//   - Balance: a directed "from owes to" amount for one unordered pair
//   - Settlement: an append-only record of a payment against a balance
//   - User: an identity known to the ledger (id, email, display name)
//   - Notification: a persisted message for a user
//
// # Design Principles
//
// 1. **Integer money**: every amount is a money.Amount in minor units
// 2. **Canonical pairs**: balances are keyed by PairKey, so one row exists per unordered pair
// 3. **IDs, not pointers**: relationships are expressed with ID strings
// 4. **Append-only history**: only balances change after creation
package models
