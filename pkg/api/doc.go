// Package api holds the request and response messages of the tallyup.v1 RPC
// services. Messages travel as JSON; field names are lowerCamelCase.
// Amounts are decimal numbers with two fractional digits.
package api
