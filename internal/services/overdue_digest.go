package services

import (
	"context"
	"log"
	"time"

	"projectdesk/internal/models"
)

// OverdueDigest periodically mails each billing account owner the list of
// open assignments that are past due.
type OverdueDigest struct {
	assignments GenericTaskService
	email       EmailService
	interval    time.Duration
	maxItems    int
	now         func() time.Time
}

func NewOverdueDigest(assignments GenericTaskService, email EmailService, interval time.Duration, maxItems int) *OverdueDigest {
	return &OverdueDigest{
		assignments: assignments,
		email:       email,
		interval:    interval,
		maxItems:    maxItems,
		now:         time.Now,
	}
}

// Run sends a digest right away and then on every tick until ctx is done.
func (d *OverdueDigest) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	log.Printf("[digest][start] interval=%s", d.interval)
	for {
		if _, err := d.RunOnce(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[digest][run][err] %v", err)
		}
		select {
		case <-ctx.Done():
			log.Printf("[digest][stop]")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce sends one round of digests and returns how many were sent.
// A failed lookup or send for one account is logged and does not stop the others.
func (d *OverdueDigest) RunOnce(ctx context.Context) (int, error) {
	now := d.now()
	accounts, err := d.assignments.GetAccountsHasOverdueAssignments(ctx, models.GenericTaskCriteria{
		IsOpen:    true,
		IsOverdue: true,
		Now:       now,
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if account.OwnerEmail == "" {
			log.Printf("[digest][skip] account=%d has no owner email", account.ID)
			continue
		}
		accountID := account.ID
		items, err := d.assignments.FindAbsoluteListByCriteria(ctx, models.GenericTaskCriteria{
			SAccountID: &accountID,
			IsOpen:     true,
			IsOverdue:  true,
			Now:        now,
		}, 0, d.maxItems)
		if err != nil {
			log.Printf("[digest][list][err] account=%d: %v", account.ID, err)
			continue
		}
		if len(items) == 0 {
			continue
		}
		if err := d.email.SendOverdueDigest(account.OwnerEmail, account, items); err != nil {
			log.Printf("[digest][send][err] account=%d: %v", account.ID, err)
			continue
		}
		sent++
	}
	log.Printf("[digest][done] accounts=%d sent=%d", len(accounts), sent)
	return sent, nil
}
