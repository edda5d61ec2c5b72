package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.data.users))
	for _, u := range repo.db.data.users {
		users = append(users, u)
	}
	return users
}

// checkUnique returns core.ErrDuplicate, named after the violated constraint, if another User than usr
// already uses its username or email.
func (repo *userRepository) checkUnique(usr user.User) error {
	for _, u := range repo.db.data.users {
		if u.ID == usr.ID {
			continue
		}
		if usr.Username != "" && u.Username == usr.Username {
			return core.NewConstraintError(core.ErrDuplicate, user.UsernameConstraint)
		}
		if usr.Email != "" && u.Email == usr.Email {
			return core.NewConstraintError(core.ErrDuplicate, user.EmailConstraint)
		}
	}
	return nil
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers []user.User, _ ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}

	var emailTaken bool
	for _, usr := range repo.db.data.users {
		if excluded[usr.ID] {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			emailTaken = true
		}
	}
	if emailTaken {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	defer repo.db.lockWrite(exec)()

	usr.ID = uuid.New().String()
	if err := repo.checkUnique(usr); err != nil {
		return user.User{}, err
	}
	usr.SetActive(usr.Active())
	repo.db.data.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0)
	for _, u := range repo.query() {
		if matchesUser(u, filter) {
			users = append(users, u)
		}
	}

	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			a, b := userField(users[i], ord.Field), userField(users[j], ord.Field)
			if a == b {
				continue
			}
			if ord.Ascending {
				return a < b
			}
			return a > b
		}
		return users[i].Username < users[j].Username
	})
	return users, nil
}

func matchesUser(u user.User, filter *user.QueryFilter) bool {
	if filter == nil {
		return true
	}
	// users with search keyword matching any Name, Username or Email
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(u.Username), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.Name), search) {
			return false
		}
	}
	// users with any of the specified roles
	if len(filter.Roles) > 0 {
		var found bool
		for _, r := range filter.Roles {
			if u.RoleStartsWith(r) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.IsActive != nil && u.Active() != *filter.IsActive {
		return false
	}
	if !filter.CreatedFrom.IsZero() && u.CreatedAt.Before(filter.CreatedFrom.UTC()) {
		return false
	}
	if !filter.CreatedTo.IsZero() && u.CreatedAt.After(filter.CreatedTo.UTC()) {
		return false
	}
	return true
}

func userField(u user.User, field string) string {
	switch field {
	case "name":
		return strings.ToLower(u.Name)
	case "email":
		return u.Email
	case "created_at":
		return u.CreatedAt.UTC().Format("20060102150405.000000000")
	default:
		return u.Username
	}
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter, _ ...core.DBExecutor) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.data.users[filter.ID]; ok {
			return usr, nil
		}
		return user.User{}, user.ErrNotFound
	}

	for _, usr := range repo.db.data.users {
		switch {
		case filter.Username != "":
			if usr.Username == filter.Username {
				return usr, nil
			}
		case filter.Email != "":
			if usr.Email == filter.Email {
				return usr, nil
			}
		case filter.UsernameOrEmail != "":
			if usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail {
				return usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	defer repo.db.lockWrite(exec)()

	if _, ok := repo.db.data.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	if err := repo.checkUnique(usr); err != nil {
		return user.User{}, err
	}
	usr.SetActive(usr.Active())
	repo.db.data.users[usr.ID] = usr
	return usr, nil
}

// DeleteUsersByID also deletes the students linked to the users and unlinks their teachers.
func (repo *userRepository) DeleteUsersByID(_ context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	defer repo.db.lockWrite(exec)()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.data.users[id]; !ok {
			continue
		}
		delete(repo.db.data.users, id)
		cnt++

		for tID, tchr := range repo.db.data.teachers {
			if tchr.UserID != nil && *tchr.UserID == id {
				tchr.UserID = nil
				repo.db.data.teachers[tID] = tchr
			}
		}
		for sID, std := range repo.db.data.students {
			if std.UserID != nil && *std.UserID == id {
				repo.db.data.deleteStudent(sID)
			}
		}
	}
	return cnt, nil
}
