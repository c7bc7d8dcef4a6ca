package negotiation

import (
	"github.com/ghorbari/ghorbari/internal/models"
)

// couplerEnterDeal commits the property to the accepted application:
// records the immediately prior status in PreviousStatus, moves the
// property to deal-in-progress, and force-rejects every sibling still in
// pending or counter. Fails with AlreadyInDeal when the property is
// already committed to a different application, which is the final guard
// against two concurrent accepts both winning.
func couplerEnterDeal(
	prop *models.Property,
	app *models.Application,
	siblings []models.Application,
	req Request,
) ([]models.Application, error) {
	if prop.Status == models.PropertyDealInProgress {
		return nil, req.errf(KindAlreadyInDeal, app.Status,
			"property %s already committed to application %s", prop.ID, prop.ActiveApplicationID)
	}

	prop.PreviousStatus = prop.Status
	prop.Status = models.PropertyDealInProgress
	prop.ActiveApplicationID = app.ID
	prop.UpdatedAt = req.Now

	rejected := rejectSiblings(siblings, app.ID, req,
		"Auto-rejected: another application was accepted")

	return rejected, nil
}

// couplerFinalize closes the deal: sold for sale listings, rented for rent
// listings. Fails with NotInDeal unless the property is deal-in-progress
// with this application.
func couplerFinalize(prop *models.Property, app *models.Application, req Request) error {
	if prop.Status != models.PropertyDealInProgress {
		return req.errf(KindNotInDeal, app.Status, "property %s is not in deal-in-progress", prop.ID)
	}
	if prop.ActiveApplicationID != "" && prop.ActiveApplicationID != app.ID {
		return req.errf(KindNotInDeal, app.Status,
			"property %s is in a deal with a different application", prop.ID)
	}

	if prop.ListingType == models.ListingSale {
		prop.Status = models.PropertySold
	} else {
		prop.Status = models.PropertyRented
	}
	prop.PreviousStatus = ""
	prop.ActiveApplicationID = ""
	prop.UpdatedAt = req.Now

	return nil
}

// couplerRestorePrevious undoes enterDeal on cancellation, restoring the
// status the property held before the deal. A missing previousStatus falls
// back to active (legacy documents predate the field); the returned flag
// lets the caller log that the fallback was taken. The cancelled
// application is not reopened; re-negotiating requires a fresh application.
func couplerRestorePrevious(prop *models.Property, app *models.Application, req Request) (prevMissing bool, err error) {
	if prop.Status != models.PropertyDealInProgress {
		return false, req.errf(KindNotInDeal, app.Status, "property %s is not in deal-in-progress", prop.ID)
	}
	if prop.ActiveApplicationID != "" && prop.ActiveApplicationID != app.ID {
		return false, req.errf(KindNotInDeal, app.Status,
			"property %s is in a deal with a different application", prop.ID)
	}

	restored := prop.PreviousStatus
	if restored == "" {
		restored = models.PropertyActive
		prevMissing = true
	}

	prop.Status = restored
	prop.PreviousStatus = ""
	prop.ActiveApplicationID = ""
	prop.UpdatedAt = req.Now

	return prevMissing, nil
}

// Reopen makes a concluded rent listing available again. It is a manual
// owner action, not deal-driven: only a rented rent listing can return to
// active. A sold sale listing is terminal, and that asymmetry is
// deliberate.
func Reopen(prop models.Property, req Request) (*models.Property, error) {
	if req.Actor.Party != models.PartyOwner && req.Actor.Party != models.PartyAdmin {
		return nil, req.errf(KindUnauthorized, "", "reopen requires the owner")
	}

	if prop.ListingType != models.ListingRent {
		return nil, req.errf(KindGuardViolation, "", "sale listings cannot be reopened once sold")
	}
	if prop.Status != models.PropertyRented {
		return nil, req.errf(KindGuardViolation, "", "only rented listings can be reopened, property is %q", prop.Status)
	}

	cp := prop.Clone()
	cp.Status = models.PropertyActive
	cp.PreviousStatus = ""
	cp.ActiveApplicationID = ""
	cp.UpdatedAt = req.Now

	return &cp, nil
}

// rejectSiblings force-transitions every competing application still in a
// live pre-deal state to rejected, recording the system actor in each
// status history. The accepted application itself is skipped.
func rejectSiblings(siblings []models.Application, acceptedID string, req Request, note string) []models.Application {
	var rejected []models.Application

	for i := range siblings {
		sib := siblings[i]
		if sib.ID == acceptedID {
			continue
		}
		if sib.Status != models.ApplicationPending && sib.Status != models.ApplicationCounter {
			continue
		}

		cp := sib.Clone()
		cp.Status = models.ApplicationRejected
		cp.StatusHistory = append(cp.StatusHistory, models.StatusChange{
			Status:    models.ApplicationRejected,
			ChangedBy: models.PartySystem,
			Email:     req.Actor.Email,
			Note:      note,
			Timestamp: req.Now,
		})
		cp.UpdatedAt = req.Now
		cp.LastActionAt = req.Now
		cp.LastActionBy = models.PartySystem

		rejected = append(rejected, cp)
	}

	return rejected
}
