package api

// Member is a participant of a group.
type Member struct {
	ID   string `json:"id,omitempty" validate:"omitempty,max=64"`
	Name string `json:"name" validate:"required,max=100"`
}

// Group is a set of members sharing expenses.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Members     []*Member `json:"members"`
	CreatedAt   int64     `json:"createdAt"`
}

type CreateGroupRequest struct {
	Name        string    `json:"name" validate:"required,max=100"`
	Description string    `json:"description,omitempty" validate:"max=500"`
	Members     []*Member `json:"members" validate:"required,min=1,dive,required"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

// ListGroupsRequest lists the groups the caller belongs to.
type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

// UpdateGroupRequest replaces a group's name, description and member list.
type UpdateGroupRequest struct {
	GroupID     string    `json:"groupId" validate:"required"`
	Name        string    `json:"name" validate:"required,max=100"`
	Description string    `json:"description,omitempty" validate:"max=500"`
	Members     []*Member `json:"members" validate:"required,min=1,dive,required"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

type DeleteGroupResponse struct{}

type GetSettlementRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

// MemberBalance is a member's net position: positive is owed money,
// negative owes money.
type MemberBalance struct {
	MemberID string  `json:"memberId"`
	Name     string  `json:"name"`
	Balance  float64 `json:"balance"`
}

// Transfer is a single payment From a debtor To a creditor.
type Transfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type GetSettlementResponse struct {
	GroupID   string           `json:"groupId"`
	Balances  []*MemberBalance `json:"balances"`
	Transfers []*Transfer      `json:"transfers"`
}
