package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Freeeeeet/coaching_bot/internal/model"
	"go.uber.org/zap"
)

type userRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	GetMentors(ctx context.Context) ([]*model.User, error)
}

type creditGranter interface {
	GrantWelcomeCredits(ctx context.Context, userID string, amount int64) (*model.CreditTransaction, error)
}

type UserService struct {
	userRepo       userRepository
	credits        creditGranter
	welcomeCredits int64
	logger         *zap.Logger
}

func NewUserService(userRepo userRepository, credits creditGranter, welcomeCredits int64, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo:       userRepo,
		credits:        credits,
		welcomeCredits: welcomeCredits,
		logger:         logger,
	}
}

// RegisterUser регистрирует или обновляет пользователя.
// Приветственные кредиты начисляются один раз, в том числе при повторной
// регистрации после неудачного начисления.
func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName, languageCode string) (*model.User, error) {
	// Проверяем существует ли пользователь
	existingUser, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	// Если пользователь уже существует, обновляем данные
	if existingUser != nil {
		existingUser.Username = username
		existingUser.FirstName = firstName
		existingUser.LastName = lastName
		existingUser.LanguageCode = languageCode

		if err := s.userRepo.Update(ctx, existingUser); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}

		s.logger.Debug("User updated",
			zap.Int64("telegram_id", telegramID),
			zap.String("username", username),
		)

		if err := s.grantWelcome(ctx, existingUser); err != nil {
			return nil, err
		}

		return existingUser, nil
	}

	// Создаём нового пользователя
	user := &model.User{
		TelegramID:   telegramID,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		LanguageCode: languageCode,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.grantWelcome(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
		zap.String("username", username),
		zap.Int64("welcome_credits", s.welcomeCredits),
	)

	return user, nil
}

func (s *UserService) grantWelcome(ctx context.Context, user *model.User) error {
	if s.welcomeCredits <= 0 {
		return nil
	}

	if _, err := s.credits.GrantWelcomeCredits(ctx, user.SessionUserID(), s.welcomeCredits); err != nil {
		return fmt.Errorf("grant welcome credits: %w", err)
	}
	return nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.userRepo.GetByTelegramID(ctx, telegramID)
}

// GetByID получает пользователя по ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetBySessionUserID получает пользователя по идентификатору из сессии
func (s *UserService) GetBySessionUserID(ctx context.Context, sessionUserID string) (*model.User, error) {
	id, err := strconv.ParseInt(sessionUserID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad user id %q", ErrInvalidInput, sessionUserID)
	}
	return s.userRepo.GetByID(ctx, id)
}

// GetMentors возвращает всех менторов
func (s *UserService) GetMentors(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.GetMentors(ctx)
}

// MakeMentor делает пользователя ментором
func (s *UserService) MakeMentor(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user == nil {
		return nil, ErrUserNotFound
	}

	if user.IsMentor {
		return user, nil
	}

	user.IsMentor = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("User became mentor",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
	)

	return user, nil
}
