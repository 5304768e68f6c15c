package main

import (
	"fmt"

	"github.com/trezcool/tutorhub/core/policy"
)

// seedPolicy stores a sensible first policy version so exception evaluation
// has rules to work with on a fresh install.
func (cli *commandLine) seedPolicy() error {
	pol, err := cli.polSvc.Create(policy.Policy{
		Rules: policy.Rules{
			Late:    &policy.LateRule{GraceMinutes: 15, Option: "deduct"},
			Absence: &policy.AbsenceRule{NoticeHours: 24, ChargePolicy: "full_charge_without_notice"},
			MakeUp:  &policy.MakeUpRule{WindowDays: 7, Slots: "weekday_evenings"},
		},
	})
	if err != nil {
		return err
	}
	fmt.Printf("seeded policy %s (effective %s)\n", pol.ID, pol.EffectiveFrom.Format("2006-01-02"))
	return nil
}
