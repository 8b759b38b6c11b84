package tool

import (
	"context"
	"sort"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/marisburan/voyago/agent/contract"
)

// PaymentMethod is one card in a user's wallet.
type PaymentMethod struct {
	CardID   string `json:"card_id"`
	Type     string `json:"type"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	Nickname string `json:"nickname"`
}

type walletUser struct {
	Name           string
	PaymentMethods []PaymentMethod
}

var walletUsers = map[string]walletUser{
	"user1": {
		Name: "John Doe",
		PaymentMethods: []PaymentMethod{
			{CardID: "card_001", Type: "credit", Brand: "Chase Freedom", Last4: "1234", Nickname: "Freedom Card"},
			{CardID: "card_002", Type: "credit", Brand: "Chase Sapphire Preferred", Last4: "5678", Nickname: "Sapphire Card"},
		},
	},
	"user2": {
		Name: "Jane Smith",
		PaymentMethods: []PaymentMethod{
			{CardID: "card_003", Type: "credit", Brand: "Chase Freedom Unlimited", Last4: "9012", Nickname: "Freedom Unlimited"},
		},
	},
}

func paymentMethodsInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolGetPaymentMethods,
		Desc: "Retrieve the payment methods available in a user's wallet.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"userId": {Type: schema.String, Desc: "Unique identifier for the user, e.g. 'user1'", Required: true},
		}),
	}
}

func handleGetPaymentMethods(_ context.Context, args map[string]any) (map[string]any, *contractx.Error) {
	r := newArgReader(args)
	userID := r.String("userId")
	if err := r.Err(); err != nil {
		return nil, err
	}

	user, ok := walletUsers[userID]
	if !ok {
		return nil, contractx.NewErrorWithDetails(contractx.KindUserNotFound,
			map[string]any{"invalid_user_id": userID, "valid_user_ids": knownUserIDs()},
			"user %s not found", userID)
	}

	return map[string]any{"paymentMethods": user.PaymentMethods}, nil
}

func knownUserIDs() []string {
	ids := make([]string, 0, len(walletUsers))
	for id := range walletUsers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
