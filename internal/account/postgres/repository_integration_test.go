// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

//go:build integration

package postgres_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/account/postgres"
)

var _ = Describe("Repository", func() {
	var (
		ctx  context.Context
		repo *postgres.Repository
		now  time.Time
	)

	newAccount := func(email, nationalID string) *account.Account {
		a, err := account.NewAccount(email, nationalID, "Ada", "Lovelace", "digest", now)
		Expect(err).NotTo(HaveOccurred())
		return a
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = postgres.NewRepository(testPool)
		now = time.Now().UTC().Truncate(time.Microsecond)
		_, err := testPool.Exec(ctx, `TRUNCATE accounts`)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Create", func() {
		It("stores an account retrievable by both keys", func() {
			a := newAccount("a@x.com", "123")
			Expect(repo.Create(ctx, a)).To(Succeed())

			byEmail, err := repo.GetByEmail(ctx, "a@x.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(byEmail).To(Equal(a))

			byNational, err := repo.GetByNationalID(ctx, "123")
			Expect(err).NotTo(HaveOccurred())
			Expect(byNational.ID).To(Equal(a.ID))
		})

		It("reports the conflicting field", func() {
			Expect(repo.Create(ctx, newAccount("a@x.com", "123"))).To(Succeed())

			err := repo.Create(ctx, newAccount("a@x.com", "456"))
			Expect(err).To(MatchError(account.ErrDuplicate))
			Expect(account.ConflictField(err)).To(Equal("email"))

			err = repo.Create(ctx, newAccount("b@x.com", "123"))
			Expect(err).To(MatchError(account.ErrDuplicate))
			Expect(account.ConflictField(err)).To(Equal("nationalId"))
		})

		It("treats email as case-sensitive", func() {
			Expect(repo.Create(ctx, newAccount("a@x.com", "123"))).To(Succeed())
			_, err := repo.GetByEmail(ctx, "A@X.COM")
			Expect(err).To(MatchError(account.ErrNotFound))
		})
	})

	Describe("reset challenge", func() {
		It("round-trips and clears the challenge pair", func() {
			a := newAccount("a@x.com", "123")
			Expect(repo.Create(ctx, a)).To(Succeed())

			a.Reset = &account.ResetChallenge{Code: 123456, ExpiresAt: now.Add(5 * time.Minute)}
			Expect(repo.Update(ctx, a)).To(Succeed())

			found, err := repo.GetByEmailAndResetCode(ctx, "a@x.com", 123456)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.Reset).To(Equal(a.Reset))

			_, err = repo.GetByEmailAndResetCode(ctx, "a@x.com", 654321)
			Expect(err).To(MatchError(account.ErrNotFound))

			found.Reset = nil
			Expect(repo.Update(ctx, found)).To(Succeed())
			_, err = repo.GetByEmailAndResetCode(ctx, "a@x.com", 123456)
			Expect(err).To(MatchError(account.ErrNotFound))
		})
	})

	Describe("Update", func() {
		It("returns ErrNotFound for an unknown account", func() {
			err := repo.Update(ctx, newAccount("ghost@x.com", "000"))
			Expect(err).To(MatchError(account.ErrNotFound))
		})

		It("rejects an email already owned by another account", func() {
			a := newAccount("a@x.com", "123")
			Expect(repo.Create(ctx, a)).To(Succeed())
			Expect(repo.Create(ctx, newAccount("b@x.com", "456"))).To(Succeed())

			a.Email = "b@x.com"
			err := repo.Update(ctx, a)
			Expect(err).To(MatchError(account.ErrDuplicate))
			Expect(account.ConflictField(err)).To(Equal("email"))
		})

		It("persists deactivation", func() {
			a := newAccount("a@x.com", "123")
			Expect(repo.Create(ctx, a)).To(Succeed())
			a.IsActive = false
			Expect(repo.Update(ctx, a)).To(Succeed())

			stored, err := repo.GetByEmail(ctx, "a@x.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.IsActive).To(BeFalse())
		})
	})
})
