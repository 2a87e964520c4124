package booking

import "joservice/models"

type transitionRule struct {
	target models.BookingStatus
	actor  models.Role
}

// transitionTable lists every legal edge and the only role allowed to take it.
// Terminal statuses have no entry.
var transitionTable = map[models.BookingStatus][]transitionRule{
	models.StatusPending: {
		{target: models.StatusAccepted, actor: models.RoleProvider},
		{target: models.StatusDeclinedByProvider, actor: models.RoleProvider},
		{target: models.StatusCancelledByUser, actor: models.RoleRequester},
	},
	models.StatusAccepted: {
		{target: models.StatusInProgress, actor: models.RoleProvider},
		{target: models.StatusCancelledByUser, actor: models.RoleRequester},
	},
	models.StatusInProgress: {
		{target: models.StatusCompleted, actor: models.RoleProvider},
	},
}

// lookupRule returns the rule for the edge current -> target, if the edge exists.
func lookupRule(current, target models.BookingStatus) (transitionRule, bool) {
	for _, rule := range transitionTable[current] {
		if rule.target == target {
			return rule, true
		}
	}
	return transitionRule{}, false
}

// AllowedTransitions returns the statuses role may move a booking to from current.
func AllowedTransitions(current models.BookingStatus, role models.Role) []models.BookingStatus {
	allowed := make([]models.BookingStatus, 0, 2)
	for _, rule := range transitionTable[current] {
		if rule.actor == role {
			allowed = append(allowed, rule.target)
		}
	}
	return allowed
}
