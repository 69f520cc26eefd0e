package apiconnect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/tallyup/pkg/api"
)

type echoExpenses struct {
	UnimplementedExpenseServiceHandler
}

func (echoExpenses) AddExpense(_ context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	splits := make([]*api.Split, len(req.Msg.SplitAmong))
	for i, id := range req.Msg.SplitAmong {
		splits[i] = &api.Split{MemberID: id}
	}
	return connect.NewResponse(&api.AddExpenseResponse{Expense: &api.Expense{
		ID:      "e1",
		GroupID: req.Msg.GroupID,
		Amount:  req.Msg.Amount,
		PayerID: req.Msg.PayerID,
		Splits:  splits,
	}}), nil
}

func TestCodec(t *testing.T) {
	c := Codec{}
	if c.Name() != "json" {
		t.Errorf("Name: expected 'json', got '%s'", c.Name())
	}

	data, err := c.Marshal(&api.GetGroupRequest{GroupID: "g1"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"groupId":"g1"}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var empty api.ListGroupsRequest
	if err := c.Unmarshal(nil, &empty); err != nil {
		t.Errorf("empty body should decode, got %v", err)
	}
	if err := c.Unmarshal([]byte("{"), &empty); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestHandlerAndClient(t *testing.T) {
	path, handler := NewExpenseServiceHandler(echoExpenses{})
	if path != "/tallyup.v1.ExpenseService/" {
		t.Errorf("unexpected path %s", path)
	}
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewExpenseServiceClient(http.DefaultClient, server.URL+"/")

	resp, err := client.AddExpense(context.Background(), connect.NewRequest(&api.AddExpenseRequest{
		GroupID:    "g1",
		Amount:     12.5,
		PayerID:    "a",
		SplitAmong: []string{"a", "b"},
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	if resp.Msg.Expense.Amount != 12.5 || len(resp.Msg.Expense.Splits) != 2 {
		t.Errorf("unexpected response: %+v", resp.Msg.Expense)
	}

	_, err = client.ListExpenses(context.Background(), connect.NewRequest(&api.ListExpensesRequest{GroupID: "g1"}))
	if connect.CodeOf(err) != connect.CodeUnimplemented {
		t.Errorf("expected CodeUnimplemented, got %v", err)
	}
}
