package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/alexedwards/argon2id"

	"github.com/MarcGrol/adyencheckout/lib/myerrors"
	"github.com/MarcGrol/adyencheckout/lib/mylog"
	"github.com/MarcGrol/adyencheckout/lib/mystore"
	"github.com/MarcGrol/adyencheckout/lib/mytime"
	"github.com/MarcGrol/adyencheckout/lib/myuuid"
)

// Service is the shopper identity used by the storefront around the checkout.
// Sign-in is phone based: a one-time code is issued and exchanged for a bearer token.
type Service interface {
	SignIn(c context.Context, phone string) error
	Verify(c context.Context, phone string, code string) (Verification, error)
	Authenticate(c context.Context, token string) (Session, error)
	GetProfile(c context.Context, userUID string) (Profile, error)
	UpdateProfile(c context.Context, userUID string, patch ProfilePatch) (Profile, error)
	GetAddresses(c context.Context, userUID string) ([]Address, error)
	SaveAddress(c context.Context, userUID string, input AddressInput) (Address, error)
	SignOut(c context.Context, token string) error
}

type Stores struct {
	Users     mystore.Store[User]          // by phone
	Profiles  mystore.Store[Profile]       // by user uid
	Addresses mystore.Store[AddressBook]   // by user uid
	SignIns   mystore.Store[PendingSignIn] // by phone
	Sessions  mystore.Store[Session]       // by token
}

func NewStores(c context.Context) (Stores, func(), error) {
	cleanups := []func(){}
	cleanup := func() {
		for _, f := range cleanups {
			f()
		}
	}

	users, usersCleanup, err := mystore.New[User](c)
	if err != nil {
		return Stores{}, cleanup, err
	}
	cleanups = append(cleanups, usersCleanup)

	profiles, profilesCleanup, err := mystore.New[Profile](c)
	if err != nil {
		return Stores{}, cleanup, err
	}
	cleanups = append(cleanups, profilesCleanup)

	addresses, addressesCleanup, err := mystore.New[AddressBook](c)
	if err != nil {
		return Stores{}, cleanup, err
	}
	cleanups = append(cleanups, addressesCleanup)

	signIns, signInsCleanup, err := mystore.New[PendingSignIn](c)
	if err != nil {
		return Stores{}, cleanup, err
	}
	cleanups = append(cleanups, signInsCleanup)

	sessions, sessionsCleanup, err := mystore.New[Session](c)
	if err != nil {
		return Stores{}, cleanup, err
	}
	cleanups = append(cleanups, sessionsCleanup)

	return Stores{
		Users:     users,
		Profiles:  profiles,
		Addresses: addresses,
		SignIns:   signIns,
		Sessions:  sessions,
	}, cleanup, nil
}

// Codes are short-lived and low entropy, so a light argon2id setting is enough.
var codeHashParams = &argon2id.Params{
	Memory:      16 * 1024,
	Iterations:  1,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

type service struct {
	stores   Stores
	nower    mytime.Nower
	uuider   myuuid.UUIDer
	notifier Notifier
	logger   mylog.Logger
}

func NewService(stores Stores, nower mytime.Nower, uuider myuuid.UUIDer, notifier Notifier) Service {
	return &service{
		stores:   stores,
		nower:    nower,
		uuider:   uuider,
		notifier: notifier,
		logger:   mylog.New("auth"),
	}
}

func (s *service) SignIn(c context.Context, phone string) error {
	code, err := newVerificationCode()
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error generating verification code: %s", err))
	}

	codeHash, err := argon2id.CreateHash(code, codeHashParams)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error hashing verification code: %s", err))
	}

	err = s.stores.SignIns.Put(c, phone, PendingSignIn{
		Phone:     phone,
		CodeHash:  codeHash,
		CreatedAt: s.nower.Now(),
	})
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error storing sign-in for %s: %s", phone, err))
	}

	err = s.notifier.SendCode(c, phone, code)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error sending verification code to %s: %s", phone, err))
	}

	s.logger.Log(c, phone, mylog.SeverityInfo, "Verification code sent to %s", phone)

	return nil
}

func (s *service) Verify(c context.Context, phone string, code string) (Verification, error) {
	now := s.nower.Now()

	// A miss is recorded, so the transaction must commit while the code is rejected.
	rejected := false
	err := s.stores.SignIns.RunInTransaction(c, func(c context.Context) error {
		pending, exists, err := s.stores.SignIns.Get(c, phone)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching sign-in for %s: %s", phone, err))
		}
		if !exists || now.After(pending.CreatedAt.Add(verificationTTL)) {
			return myerrors.NewAuthenticationError(errors.New(invalidCodeMsg))
		}

		match, err := argon2id.ComparePasswordAndHash(code, pending.CodeHash)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error comparing code for %s: %s", phone, err))
		}
		if !match {
			rejected = true
			return s.recordFailedAttempt(c, pending)
		}

		// a code can be used once
		err = s.stores.SignIns.Delete(c, phone)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error deleting sign-in for %s: %s", phone, err))
		}
		return nil
	})
	if err != nil {
		return Verification{}, err
	}
	if rejected {
		return Verification{}, myerrors.NewAuthenticationError(errors.New(invalidCodeMsg))
	}

	user, exists, err := s.stores.Users.Get(c, phone)
	if err != nil {
		return Verification{}, myerrors.NewInternalError(fmt.Errorf("error fetching user %s: %s", phone, err))
	}
	if !exists {
		user = User{
			UID:       s.uuider.Create(),
			Phone:     phone,
			CreatedAt: now,
		}
		err = s.stores.Users.Put(c, phone, user)
		if err != nil {
			return Verification{}, myerrors.NewInternalError(fmt.Errorf("error storing user %s: %s", phone, err))
		}
		s.logger.Log(c, user.UID, mylog.SeverityInfo, "Created user %s", user.UID)
	}

	token := s.uuider.Create()
	err = s.stores.Sessions.Put(c, token, Session{
		Token:     token,
		UserUID:   user.UID,
		CreatedAt: now,
	})
	if err != nil {
		return Verification{}, myerrors.NewInternalError(fmt.Errorf("error storing session for user %s: %s", user.UID, err))
	}

	s.logger.Log(c, user.UID, mylog.SeverityInfo, "User %s signed in", user.UID)

	return Verification{
		Token:     token,
		User:      user,
		IsNewUser: !exists,
	}, nil
}

// recordFailedAttempt drops the pending sign-in once it has been guessed at too often.
func (s *service) recordFailedAttempt(c context.Context, pending PendingSignIn) error {
	pending.FailedAttempts++
	if pending.FailedAttempts >= maxVerifyAttempts {
		s.logger.Log(c, "", mylog.SeverityWarn, "Sign-in for %s dropped after %d failed attempts", pending.Phone, pending.FailedAttempts)
		err := s.stores.SignIns.Delete(c, pending.Phone)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error deleting sign-in for %s: %s", pending.Phone, err))
		}
		return nil
	}

	err := s.stores.SignIns.Put(c, pending.Phone, pending)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error storing sign-in for %s: %s", pending.Phone, err))
	}
	return nil
}

func (s *service) Authenticate(c context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, myerrors.NewAuthenticationError(errors.New(notAuthenticated))
	}

	session, exists, err := s.stores.Sessions.Get(c, token)
	if err != nil {
		return Session{}, myerrors.NewInternalError(fmt.Errorf("error fetching session: %s", err))
	}
	if !exists {
		return Session{}, myerrors.NewAuthenticationError(errors.New(notAuthenticated))
	}

	return session, nil
}

// GetProfile creates an empty profile on first access.
func (s *service) GetProfile(c context.Context, userUID string) (Profile, error) {
	var profile Profile
	err := s.stores.Profiles.RunInTransaction(c, func(c context.Context) error {
		existing, exists, err := s.stores.Profiles.Get(c, userUID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching profile of %s: %s", userUID, err))
		}
		if exists {
			profile = existing
			return nil
		}

		now := s.nower.Now()
		profile = Profile{
			UID:          s.uuider.Create(),
			UserUID:      userUID,
			CreatedAt:    now,
			LastModified: now,
		}
		err = s.stores.Profiles.Put(c, userUID, profile)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing profile of %s: %s", userUID, err))
		}
		return nil
	})
	if err != nil {
		return Profile{}, err
	}

	return profile, nil
}

func (s *service) UpdateProfile(c context.Context, userUID string, patch ProfilePatch) (Profile, error) {
	var profile Profile
	err := s.stores.Profiles.RunInTransaction(c, func(c context.Context) error {
		existing, exists, err := s.stores.Profiles.Get(c, userUID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching profile of %s: %s", userUID, err))
		}
		if !exists {
			return myerrors.NewNotFoundError(errors.New(profileNotFoundMsg))
		}

		profile = existing
		if patch.FullName != nil {
			profile.FullName = *patch.FullName
		}
		if patch.Email != nil {
			profile.Email = *patch.Email
		}
		profile.LastModified = s.nower.Now()

		err = s.stores.Profiles.Put(c, userUID, profile)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing profile of %s: %s", userUID, err))
		}
		return nil
	})
	if err != nil {
		return Profile{}, err
	}

	s.logger.Log(c, userUID, mylog.SeverityInfo, "Updated profile of %s", userUID)

	return profile, nil
}

func (s *service) GetAddresses(c context.Context, userUID string) ([]Address, error) {
	book, _, err := s.stores.Addresses.Get(c, userUID)
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error fetching addresses of %s: %s", userUID, err))
	}

	if book.Addresses == nil {
		return []Address{}, nil
	}
	return book.Addresses, nil
}

// SaveAddress adds an address. A new default address takes over from the previous one.
func (s *service) SaveAddress(c context.Context, userUID string, input AddressInput) (Address, error) {
	now := s.nower.Now()
	address := Address{
		UID:          s.uuider.Create(),
		UserUID:      userUID,
		Name:         input.Name,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		City:         input.City,
		Country:      input.Country,
		IsDefault:    input.IsDefault,
		CreatedAt:    now,
		LastModified: now,
	}
	if address.Name == "" {
		address.Name = defaultAddressName
	}

	err := s.stores.Addresses.RunInTransaction(c, func(c context.Context) error {
		book, _, err := s.stores.Addresses.Get(c, userUID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching addresses of %s: %s", userUID, err))
		}
		book.UserUID = userUID

		addresses := make([]Address, 0, len(book.Addresses)+1)
		for _, a := range book.Addresses {
			if address.IsDefault && a.IsDefault {
				a.IsDefault = false
				a.LastModified = now
			}
			addresses = append(addresses, a)
		}
		book.Addresses = append(addresses, address)

		err = s.stores.Addresses.Put(c, userUID, book)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing addresses of %s: %s", userUID, err))
		}
		return nil
	})
	if err != nil {
		return Address{}, err
	}

	s.logger.Log(c, userUID, mylog.SeverityInfo, "Saved address %s of %s", address.UID, userUID)

	return address, nil
}

func (s *service) SignOut(c context.Context, token string) error {
	err := s.stores.Sessions.Delete(c, token)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error deleting session: %s", err))
	}
	return nil
}

func newVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
