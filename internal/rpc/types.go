package rpc

import "fmt"

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Context is the slot context attached to most RPC results
type Context struct {
	Slot uint64 `json:"slot"`
}

// TokenAmount represents token balance information
type TokenAmount struct {
	Amount         string   `json:"amount"`
	Decimals       int      `json:"decimals"`
	UIAmountString string   `json:"uiAmountString"`
	UIAmount       *float64 `json:"uiAmount"`
}

// TokenSupplyResponse is the response from getTokenSupply
type TokenSupplyResponse struct {
	Result *struct {
		Context Context     `json:"context"`
		Value   TokenAmount `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

// LargestAccount is one entry of getTokenLargestAccounts
type LargestAccount struct {
	Address string `json:"address"`
	TokenAmount
}

// LargestAccountsResponse is the response from getTokenLargestAccounts
type LargestAccountsResponse struct {
	Result *struct {
		Context Context          `json:"context"`
		Value   []LargestAccount `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

// AccountInfo is the undecoded account returned by getAccountInfo
type AccountInfo struct {
	Owner      string   `json:"owner"`
	Lamports   uint64   `json:"lamports"`
	Executable bool     `json:"executable"`
	Data       []string `json:"data"`
}

// AccountInfoResponse is the response from getAccountInfo
type AccountInfoResponse struct {
	Result *struct {
		Context Context      `json:"context"`
		Value   *AccountInfo `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}
