package service

import (
	"errors"
	"tush00nka/coachly_messaging/internal/model"
	"tush00nka/coachly_messaging/internal/repository"
)

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) CreateUser(user *model.User) error {
	// Валидация данных перед созданием
	if user.Username == "" {
		return errors.New("username is required")
	}
	if user.Password == "" {
		return errors.New("password is required")
	}
	if !model.ValidRole(user.Role) {
		return errors.New("invalid role")
	}

	user.EnsureDisplayName()

	return s.userRepo.Create(user)
}

func (s *userService) GetUserByID(id uint) (*model.User, error) {
	if id == 0 {
		return nil, errors.New("invalid user ID")
	}

	return s.userRepo.FindByID(id)
}

func (s *userService) GetUserByUsername(username string) (*model.User, error) {
	if username == "" {
		return nil, errors.New("invalid username")
	}

	return s.userRepo.FindByUsername(username)
}

func (s *userService) UpdateUser(user *model.User) error {
	// Проверяем существование пользователя
	existingUser, err := s.userRepo.FindByID(user.ID)
	if err != nil {
		return err
	}

	// Обновляем только разрешенные поля
	existingUser.DisplayName = user.DisplayName
	existingUser.ProfilePictureKey = user.ProfilePictureKey

	return s.userRepo.Update(existingUser)
}

func (s *userService) UsernameExists(username string) (bool, error) {
	return s.userRepo.UsernameExists(username)
}

func (s *userService) SearchUsers(prompt string) ([]*model.User, error) {
	return s.userRepo.Search(prompt)
}
