package usecase

import (
	"testing"
	"time"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

func TestRouteAfterRouter(t *testing.T) {
	fresh := domain.NewSession("s-1", time.Now())
	if got := routeAfterRouter(fresh); got != nodeEnd {
		t.Fatalf("no processed message routes to %q, want end", got)
	}

	s := domain.NewSession("s-2", time.Now())
	s.Cursor = 0
	s.Intent = domain.Intent{MotorcycleLoanIntent: true}
	if got := routeAfterRouter(s); got != nodeDocops {
		t.Fatalf("loan intent routes to %q, want docops", got)
	}

	s.Flags.ApprovedOnce = true
	if got := routeAfterRouter(s); got != nodeChat {
		t.Fatalf("guarded repeat intent routes to %q, want chat", got)
	}

	s.Flags.ApprovedOnce = false
	s.Intent = domain.Intent{}
	if got := routeAfterRouter(s); got != nodeChat {
		t.Fatalf("plain message routes to %q, want chat", got)
	}
}

func TestRouteAfterDocops(t *testing.T) {
	s := domain.NewSession("s-1", time.Now())
	if got := routeAfterDocops(s); got != nodeEnd {
		t.Fatalf("incomplete documents route to %q, want end", got)
	}

	income := 20000
	s.Documents.Bike = domain.BikeSlot{Path: "b.jpg", OK: true}
	s.Documents.Income = domain.IncomeSlot{Path: "i.jpg", OK: true, MonthlyIncomeTHB: &income}
	s.Documents.ID = domain.IDSlot{Path: "d.jpg", OK: true}

	// Complete documents without the trigger stay put; the trigger is
	// armed by the verification pass, not by completeness alone.
	if got := routeAfterDocops(s); got != nodeEnd {
		t.Fatalf("untriggered complete documents route to %q, want end", got)
	}

	s.Flags.UserTriggeredAppraise = true
	if got := routeAfterDocops(s); got != nodeAppraise {
		t.Fatalf("triggered complete documents route to %q, want appraise", got)
	}
}
