package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLeadTimes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []int
	}{
		{"typical", "{30,60}", []int{30, 60}},
		{"single", "{15}", []int{15}},
		{"spaces", "{ 30 , 60 }", []int{30, 60}},
		{"empty array", "{}", nil},
		{"empty string", "", nil},
		{"drops malformed elements", "{30,abc,60}", []int{30, 60}},
		{"drops non-positive", "{0,-5,45}", []int{45}},
		{"all malformed", "{abc}", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseLeadTimes([]byte(tc.raw)))
		})
	}
}
