package usecase

import (
	"context"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

// The routing graph is a fixed finite-state dispatcher:
//
//	router → {docops, chat, end}
//	docops → {appraise, end}
//	chat, appraise → end
//
// Each traversal is synchronous and runs to the terminal node before the
// event handler returns.
type node string

const (
	nodeRouter   node = "router"
	nodeChat     node = "chat"
	nodeDocops   node = "docops"
	nodeAppraise node = "appraise"
	nodeEnd      node = "end"
)

func routeAfterRouter(s *domain.Session) node {
	if s.Cursor < 0 {
		return nodeEnd
	}
	// Once an approval exists every turn falls through to chat, including
	// repeat loan intent: the router's guard reply is followed by a
	// general contextual reply on the same turn.
	if s.Intent.MotorcycleLoanIntent && !s.Flags.ApprovedOnce {
		return nodeDocops
	}
	return nodeChat
}

func routeAfterDocops(s *domain.Session) node {
	if s.DocumentsComplete() && s.Flags.UserTriggeredAppraise {
		return nodeAppraise
	}
	return nodeEnd
}

// runGraph executes one traversal and returns the last stage visited.
func (uc *IntakeUseCase) runGraph(ctx context.Context, s *domain.Session) node {
	current := nodeRouter
	last := current
	for current != nodeEnd {
		last = current
		switch current {
		case nodeRouter:
			uc.routerIntent(ctx, s)
			current = routeAfterRouter(s)
		case nodeDocops:
			uc.verifyDocuments(ctx, s)
			current = routeAfterDocops(s)
		case nodeChat:
			uc.generalChat(ctx, s)
			current = nodeEnd
		case nodeAppraise:
			uc.appraise(ctx, s)
			current = nodeEnd
		default:
			current = nodeEnd
		}
	}
	return last
}
