// Command seed loads a demo construction project into a fresh ledger: the
// standard chart, an approved budget, client payments and paid expenses.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/app"
	"github.com/nekorytaylor666/stroika-sub000/internal/budgets"
	"github.com/nekorytaylor666/stroika-sub000/internal/expenses"
	"github.com/nekorytaylor666/stroika-sub000/internal/payments"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
)

func main() {
	org := flag.Int64("org", 1, "organization id")
	project := flag.Int64("project", 1, "project id")
	actor := flag.Int64("actor", 1, "user id recorded as creator")
	flag.Parse()

	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg, "seed")

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	svc := app.NewServices(app.ServiceDeps{Pool: pool, Config: cfg, Logger: logger})

	log.Println("→ Seeding chart of accounts...")
	if _, err := svc.Accounts.SeedStandardChart(ctx, *org); err != nil {
		log.Fatalf("seed chart: %v", err)
	}

	log.Println("→ Seeding budget...")
	start := time.Date(time.Now().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	budget, err := svc.Budgets.CreateBudget(ctx, budgets.CreateInput{
		OrganizationID: *org,
		ProjectID:      *project,
		Name:           "Residential block A",
		EffectiveDate:  start,
		CreatedBy:      *actor,
		Lines: []budgets.LineInput{
			{AccountCode: "20", Category: "materials", Description: "Concrete and rebar", PlannedAmount: dec("1200000")},
			{AccountCode: "20", Category: "labor", Description: "Site crew", PlannedAmount: dec("800000")},
			{AccountCode: "26", Category: "overhead", Description: "Site office", PlannedAmount: dec("150000")},
		},
	})
	if err != nil {
		log.Fatalf("create budget: %v", err)
	}
	if _, err := svc.Budgets.ApproveBudget(ctx, *org, budget.ID, *actor); err != nil {
		log.Fatalf("approve budget: %v", err)
	}

	log.Println("→ Seeding client payments...")
	for i, amount := range []string{"900000", "650000"} {
		p, err := svc.Payments.CreatePayment(ctx, payments.CreateInput{
			OrganizationID: *org,
			ProjectID:      project,
			Amount:         dec(amount),
			Direction:      payments.DirectionIncoming,
			Method:         "bank_transfer",
			Counterparty:   "Client LLP",
			PaymentDate:    start.AddDate(0, i+1, 0),
			CreatedBy:      *actor,
		})
		if err != nil {
			log.Fatalf("create payment: %v", err)
		}
		if _, err := svc.Payments.ConfirmPayment(ctx, payments.ConfirmInput{OrganizationID: *org, PaymentID: p.ID, ActorID: *actor}); err != nil {
			log.Fatalf("confirm payment: %v", err)
		}
	}

	log.Println("→ Seeding expenses...")
	for i, e := range []struct{ category, vendor, amount string }{
		{"materials", "Concrete Supply", "420000"},
		{"labor", "Site crew payroll", "310000"},
		{"transport", "Haulage Co", "45000"},
	} {
		exp, err := svc.Expenses.CreateExpense(ctx, expenses.CreateInput{
			OrganizationID: *org,
			ProjectID:      project,
			Amount:         dec(e.amount),
			Category:       e.category,
			Vendor:         e.vendor,
			ExpenseDate:    start.AddDate(0, i+1, 10),
			CreatedBy:      *actor,
		})
		if err != nil {
			log.Fatalf("create expense: %v", err)
		}
		if _, err := svc.Expenses.ApproveExpense(ctx, *org, exp.ID, *actor); err != nil {
			log.Fatalf("approve expense: %v", err)
		}
		if _, err := svc.Expenses.MarkExpensePaid(ctx, expenses.MarkPaidInput{OrganizationID: *org, ExpenseID: exp.ID, ActorID: *actor}); err != nil {
			log.Fatalf("pay expense: %v", err)
		}
	}

	log.Println("✓ Seed completed")
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
