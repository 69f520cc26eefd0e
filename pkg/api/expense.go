package api

// Split is one member's share of an expense.
type Split struct {
	MemberID string  `json:"memberId" validate:"required"`
	Share    float64 `json:"share"`
}

// Expense is a payment made by one member on behalf of several.
type Expense struct {
	ID          string   `json:"id"`
	GroupID     string   `json:"groupId"`
	Description string   `json:"description,omitempty"`
	Amount      float64  `json:"amount"`
	PayerID     string   `json:"payerId"`
	Splits      []*Split `json:"splits"`
	CreatedAt   int64    `json:"createdAt"`
}

// AddExpenseRequest records an expense. Exactly one of Splits and SplitAmong
// is set; SplitAmong divides the amount equally between the listed members.
type AddExpenseRequest struct {
	GroupID     string   `json:"groupId" validate:"required"`
	Description string   `json:"description,omitempty" validate:"max=200"`
	Amount      float64  `json:"amount" validate:"gt=0"`
	PayerID     string   `json:"payerId" validate:"required"`
	Splits      []*Split `json:"splits,omitempty" validate:"dive,required"`
	SplitAmong  []string `json:"splitAmong,omitempty" validate:"dive,required"`
}

type AddExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expenseId" validate:"required"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expenseId" validate:"required"`
}

type DeleteExpenseResponse struct{}
