package main

import (
	"testing"

	ldto "github.com/radieske/lottery-platform-poc/internal/lottery-service/dto"
)

func TestShouldSkipTrigger(t *testing.T) {
	open := ldto.RoundStatusResponse{State: "OPEN", LastDrawHeight: 10, DrawInterval: 10}

	cases := []struct {
		name   string
		st     ldto.RoundStatusResponse
		height uint64
		want   bool
	}{
		{"interval not elapsed", open, 15, true},
		{"exactly one block early", open, 19, true},
		{"interval elapsed", open, 20, false},
		{"well past interval", open, 35, false},
		{"height behind last draw", open, 5, false},
		{"drawing round never skips", ldto.RoundStatusResponse{State: "DRAWING", LastDrawHeight: 10, DrawInterval: 10}, 12, false},
		{"zero interval never skips", ldto.RoundStatusResponse{State: "OPEN", LastDrawHeight: 10}, 12, false},
	}

	for _, tc := range cases {
		if got := shouldSkipTrigger(tc.st, tc.height); got != tc.want {
			t.Errorf("%s: shouldSkipTrigger(h=%d) = %v, want %v", tc.name, tc.height, got, tc.want)
		}
	}
}
