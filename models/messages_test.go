package models

import (
	"errors"
	"testing"
)

func TestParseReportClampsBallToCourt(t *testing.T) {
	r, err := ParseReport(map[string]interface{}{
		"t":       10.0,
		"sideHit": "left",
		"ball":    map[string]interface{}{"x": -3.0, "y": 7.5, "vx": 0.4, "vy": -0.1},
	}, "sideHit")
	if err != nil {
		t.Fatal(err)
	}
	if r.Ball.X != 0 || r.Ball.Y != 1 {
		t.Fatalf("ball = %+v", r.Ball)
	}
	if r.Ball.VX != 0.4 || r.Ball.VY != -0.1 || r.Side != SlotLeft {
		t.Fatalf("report = %+v", r)
	}
}

func TestParseReportRejectsBadShapes(t *testing.T) {
	cases := []map[string]interface{}{
		nil,
		{"for": "middle", "ball": map[string]interface{}{"x": 0.5, "y": 0.5}},
		{"for": "right"},
		{"for": "right", "ball": map[string]interface{}{"x": "far", "y": 0.5}},
	}
	for i, payload := range cases {
		if _, err := ParseReport(payload, "for"); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: err = %v", i, err)
		}
	}
}
