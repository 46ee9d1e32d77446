// Package api defines the splitledger.v1 wire messages. Amounts travel as
// decimal strings with two fractional digits.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the public view of an account.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// Group is a set of members sharing expenses.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Members     []string  `json:"members"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type GetMembersRequest struct {
	GroupID string `json:"groupId"`
}

type GetMembersResponse struct {
	Members []*User `json:"members"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type AddMemberRequest struct {
	GroupID string `json:"groupId"`
	Email   string `json:"email"`
}

type AddMemberResponse struct {
	Member *User `json:"member"`
}

type RemoveMemberRequest struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

type RemoveMemberResponse struct{}

type DeleteGroupRequest struct {
	GroupID string `json:"groupId"`
}

type DeleteGroupResponse struct{}

// Expense is a cost paid by one member and split among several.
type Expense struct {
	ID          string                     `json:"id"`
	GroupID     string                     `json:"groupId"`
	Description string                     `json:"description"`
	Amount      decimal.Decimal            `json:"amount"`
	Category    string                     `json:"category"`
	Date        time.Time                  `json:"date"`
	PaidBy      string                     `json:"paidBy"`
	SplitType   string                     `json:"splitType"`
	Splits      map[string]decimal.Decimal `json:"splits"`
	CreatedAt   time.Time                  `json:"createdAt"`
	UpdatedAt   time.Time                  `json:"updatedAt"`
}

type AddExpenseRequest struct {
	GroupID     string                     `json:"groupId"`
	Description string                     `json:"description"`
	Amount      decimal.Decimal            `json:"amount"`
	Category    string                     `json:"category"`
	Date        time.Time                  `json:"date"`
	PaidBy      string                     `json:"paidBy"`
	SplitType   string                     `json:"splitType"`
	Splits      map[string]decimal.Decimal `json:"splits"`
}

type AddExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupID string `json:"groupId"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type CalculateSplitRequest struct {
	GroupID   string          `json:"groupId"`
	SplitType string          `json:"splitType"`
	Amount    decimal.Decimal `json:"amount"`
	PaidBy    string          `json:"paidBy"`
}

type CalculateSplitResponse struct {
	Splits map[string]decimal.Decimal `json:"splits"`
}

// Settlement is a recorded payment against a balance.
type Settlement struct {
	ID        string          `json:"id"`
	GroupID   string          `json:"groupId"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Notes     string          `json:"notes,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

type RecordSettlementRequest struct {
	GroupID string          `json:"groupId"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Amount  decimal.Decimal `json:"amount"`
	Date    time.Time       `json:"date"`
	Notes   string          `json:"notes,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"groupId"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

// Balance means From owes To Amount.
type Balance struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NetPosition is positive when the user is owed money overall.
type NetPosition struct {
	UserID     string          `json:"userId"`
	NetBalance decimal.Decimal `json:"netBalance"`
}

type GetBalancesRequest struct {
	GroupID string `json:"groupId"`
}

type GetBalancesResponse struct {
	Balances     []*Balance     `json:"balances"`
	NetPositions []*NetPosition `json:"netPositions"`
}

// Transaction is a suggested payment.
type Transaction struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type SimplifyDebtsRequest struct {
	GroupID string `json:"groupId"`
}

type SimplifyDebtsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}
