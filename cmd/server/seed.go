package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	memberModels "frontdesk/internal/member/models"
	opModels "frontdesk/internal/operator/models"
	"frontdesk/internal/operator/token"
	id "frontdesk/pkg/domain"
)

const devTokenTTL = 12 * time.Hour

// seedDev fills the in-memory stores with an admin, a desk operator and a few
// members so a local server is usable without the registry import.
func seedDev(ctx context.Context, st *stores, tokens *token.Service, log *slog.Logger) error {
	now := time.Now()
	operators := []*opModels.Operator{
		{ID: id.OperatorID(uuid.New()), Username: "admin", DisplayName: "Administrator", Role: opModels.RoleAdmin, CreatedAt: now},
		{ID: id.OperatorID(uuid.New()), Username: "desk1", DisplayName: "Desk 1", Role: opModels.RoleOperator, CreatedAt: now},
	}
	for _, op := range operators {
		if err := st.operators.Put(ctx, op); err != nil {
			return err
		}
		signed, err := tokens.Issue(op, devTokenTTL)
		if err != nil {
			return err
		}
		log.Info("dev operator", "username", op.Username, "role", string(op.Role), "token", signed)
	}

	all := memberModels.Flags{ContributionCurrent: true, SolidarityCurrent: true, FundCurrent: true, FederationCurrent: true, LoanCurrent: true}
	owesLoan := all
	owesLoan.LoanCurrent = false
	members := []*memberModels.Member{
		{ID: id.MemberID(uuid.New()), MemberNumber: "1001", NationalID: "1.111.111-1", FullName: "Ana Ferreira", Flags: all, UpdatedAt: now},
		{ID: id.MemberID(uuid.New()), MemberNumber: "1002", NationalID: "2.222.222-2", FullName: "Bruno Silva", Flags: owesLoan, UpdatedAt: now},
		{ID: id.MemberID(uuid.New()), MemberNumber: "1003", NationalID: "3.333.333-3", FullName: "Carla Méndez", Flags: all, UpdatedAt: now},
	}
	for _, m := range members {
		if err := st.seeder.Put(ctx, m); err != nil {
			return err
		}
	}
	log.Info("dev members seeded", "count", len(members))
	return nil
}
