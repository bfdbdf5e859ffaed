//go:build integration

package repository_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/biosecret/go-tasks/apperr"
	"github.com/biosecret/go-tasks/models"
	"github.com/biosecret/go-tasks/repository"
	"github.com/biosecret/go-tasks/tasks"
)

var _ = Describe("PostgreSQL repositories", func() {
	var (
		users     *repository.UserRepository
		taskStore *repository.TaskRepository
		ana       *models.User
	)

	BeforeEach(func() {
		truncate()
		users = repository.NewUserRepository(env.pool)
		taskStore = repository.NewTaskRepository(env.pool)

		var err error
		ana, err = users.Create(env.ctx, "ana", "a@x.com", "hash")
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("users", func() {
		It("finds a created user by name and id", func() {
			byName, err := users.FindByName(env.ctx, "ana")
			Expect(err).NotTo(HaveOccurred())
			Expect(byName.ID).To(Equal(ana.ID))
			Expect(byName.PasswordHash).To(Equal("hash"))

			byID, err := users.FindByID(env.ctx, ana.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byID.Name).To(Equal("ana"))
		})

		It("returns nil for unknown users", func() {
			u, err := users.FindByName(env.ctx, "nobody")
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(BeNil())
		})

		It("maps the unique constraint to a conflict", func() {
			_, err := users.Create(env.ctx, "ana", "other@x.com", "hash")
			Expect(errors.Is(err, apperr.ErrConflict)).To(BeTrue())
		})
	})

	Describe("tasks", func() {
		It("creates with defaults and lists by owner in id order", func() {
			first, err := taskStore.Create(env.ctx, ana.ID, models.NewTask{Title: "buy milk"})
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Completed).To(BeFalse())
			Expect(first.OwnerID).To(Equal(ana.ID))

			second, err := taskStore.Create(env.ctx, ana.ID, models.NewTask{Title: "walk dog"})
			Expect(err).NotTo(HaveOccurred())

			list, err := taskStore.ListByOwner(env.ctx, ana.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].ID).To(Equal(first.ID))
			Expect(list[1].ID).To(Equal(second.ID))
		})

		It("rejects a task for a missing owner as not found", func() {
			_, err := taskStore.Create(env.ctx, ana.ID+100, models.NewTask{Title: "orphan"})
			Expect(errors.Is(err, apperr.ErrNotFound)).To(BeTrue())
		})

		It("scopes FindOwned and Delete to the owner", func() {
			bob, err := users.Create(env.ctx, "bob", "b@x.com", "hash")
			Expect(err).NotTo(HaveOccurred())
			task, err := taskStore.Create(env.ctx, ana.ID, models.NewTask{Title: "x"})
			Expect(err).NotTo(HaveOccurred())

			owned, err := taskStore.FindOwned(env.ctx, bob.ID, task.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(owned).To(BeNil())

			deleted, err := taskStore.Delete(env.ctx, bob.ID, task.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(BeFalse())

			deleted, err = taskStore.Delete(env.ctx, ana.ID, task.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(BeTrue())
		})

		It("rolls back a transaction that fails", func() {
			task, err := taskStore.Create(env.ctx, ana.ID, models.NewTask{Title: "x"})
			Expect(err).NotTo(HaveOccurred())

			boom := errors.New("boom")
			err = taskStore.InTx(env.ctx, func(tx tasks.Store) error {
				t, err := tx.FindOwned(env.ctx, ana.ID, task.ID)
				if err != nil {
					return err
				}
				t.Completed = true
				if _, err := tx.Update(env.ctx, t); err != nil {
					return err
				}
				return boom
			})
			Expect(err).To(MatchError(boom))

			reloaded, err := taskStore.FindByID(env.ctx, task.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Completed).To(BeFalse())
		})

		It("keeps owner_id immutable", func() {
			bob, err := users.Create(env.ctx, "bob", "b@x.com", "hash")
			Expect(err).NotTo(HaveOccurred())
			task, err := taskStore.Create(env.ctx, ana.ID, models.NewTask{Title: "x"})
			Expect(err).NotTo(HaveOccurred())

			_, err = env.pool.Exec(env.ctx, "UPDATE tasks SET owner_id = $1 WHERE id = $2", bob.ID, task.ID)
			Expect(err).To(HaveOccurred())
		})

		It("removes a user's tasks when the user is deleted", func() {
			task, err := taskStore.Create(env.ctx, ana.ID, models.NewTask{Title: "x"})
			Expect(err).NotTo(HaveOccurred())

			_, err = env.pool.Exec(env.ctx, "DELETE FROM users WHERE id = $1", ana.ID)
			Expect(err).NotTo(HaveOccurred())

			gone, err := taskStore.FindByID(env.ctx, task.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(gone).To(BeNil())
		})
	})
})
