package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"helpHub/internal/lifecycle"
	"helpHub/internal/models"
)

type fakeRequestGetter struct {
	requests map[int]models.Request
}

func (f *fakeRequestGetter) GetRequestByID(ctx context.Context, id int) (models.Request, error) {
	req, ok := f.requests[id]
	if !ok {
		return models.Request{}, models.ErrRequestNotFound
	}
	return req, nil
}

type fakeUserGetter struct {
	users map[int]models.User
}

func (f *fakeUserGetter) GetUserSummary(ctx context.Context, id int) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, models.ErrUserNotFound
	}
	return user, nil
}

type notified struct {
	userID  int
	message string
	link    string
}

type fakeNotifier struct {
	sent []notified
}

func (f *fakeNotifier) Notify(ctx context.Context, userID int, message, link string) (models.Notification, error) {
	f.sent = append(f.sent, notified{userID: userID, message: message, link: link})
	return models.Notification{ID: len(f.sent), UserID: userID, Message: message, Link: link}, nil
}

type fakeOfferStore struct {
	offers       map[int]models.Offer
	nextID       int
	createErr    error
	acceptCalled bool
	rejectCalled bool
	acceptErr    error
}

func (f *fakeOfferStore) CreateOffer(ctx context.Context, offer models.Offer) (models.Offer, error) {
	if f.createErr != nil {
		return models.Offer{}, f.createErr
	}
	for _, existing := range f.offers {
		if existing.RequestID == offer.RequestID && existing.OfferedBy == offer.OfferedBy {
			return models.Offer{}, models.ErrAlreadyOffered
		}
	}
	f.nextID++
	offer.ID = f.nextID
	offer.Status = models.OfferPending
	if f.offers == nil {
		f.offers = make(map[int]models.Offer)
	}
	f.offers[offer.ID] = offer
	return offer, nil
}

func (f *fakeOfferStore) GetOfferByID(ctx context.Context, id int) (models.Offer, error) {
	offer, ok := f.offers[id]
	if !ok {
		return models.Offer{}, models.ErrOfferNotFound
	}
	return offer, nil
}

func (f *fakeOfferStore) ListOffersByRequest(ctx context.Context, requestID int) ([]models.Offer, error) {
	var out []models.Offer
	for _, offer := range f.offers {
		if offer.RequestID == requestID {
			out = append(out, offer)
		}
	}
	return out, nil
}

func (f *fakeOfferStore) AcceptOffer(ctx context.Context, offerID int) (models.Offer, error) {
	f.acceptCalled = true
	if f.acceptErr != nil {
		return models.Offer{}, f.acceptErr
	}
	offer := f.offers[offerID]
	if offer.Status != models.OfferPending {
		return models.Offer{}, models.ErrOfferAlreadyDecided
	}
	offer.Status = models.OfferAccepted
	f.offers[offerID] = offer
	for id, sibling := range f.offers {
		if id != offerID && sibling.RequestID == offer.RequestID && sibling.Status == models.OfferPending {
			sibling.Status = models.OfferRejected
			f.offers[id] = sibling
		}
	}
	return offer, nil
}

func (f *fakeOfferStore) RejectOffer(ctx context.Context, offerID int) (models.Offer, error) {
	f.rejectCalled = true
	offer := f.offers[offerID]
	if offer.Status != models.OfferPending {
		return models.Offer{}, models.ErrOfferAlreadyDecided
	}
	offer.Status = models.OfferRejected
	f.offers[offerID] = offer
	return offer, nil
}

func newOfferService(store *fakeOfferStore, requests map[int]models.Request, notifier *fakeNotifier) *OfferService {
	return &OfferService{
		OfferRepo:     store,
		RequestRepo:   &fakeRequestGetter{requests: requests},
		UserRepo:      &fakeUserGetter{users: map[int]models.User{20: {ID: 20, Name: "Aset"}, 30: {ID: 30, Name: "Dana"}}},
		Notifications: notifier,
	}
}

func TestCreateOfferOnOwnRequest(t *testing.T) {
	store := &fakeOfferStore{}
	svc := newOfferService(store, map[int]models.Request{1: {ID: 1, CreatedBy: 10, Title: "Move a couch", Status: lifecycle.StatusOpen}}, &fakeNotifier{})

	if _, err := svc.CreateOffer(context.Background(), 1, 10, "I can help"); !errors.Is(err, models.ErrSelfOffer) {
		t.Fatalf("expected ErrSelfOffer, got %v", err)
	}
}

func TestCreateOfferMissingRequest(t *testing.T) {
	svc := newOfferService(&fakeOfferStore{}, map[int]models.Request{}, &fakeNotifier{})
	if _, err := svc.CreateOffer(context.Background(), 99, 20, ""); !errors.Is(err, models.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestCreateOfferDuplicateConflict(t *testing.T) {
	store := &fakeOfferStore{}
	svc := newOfferService(store, map[int]models.Request{1: {ID: 1, CreatedBy: 10, Title: "Move a couch", Status: lifecycle.StatusOpen}}, &fakeNotifier{})

	if _, err := svc.CreateOffer(context.Background(), 1, 20, "first"); err != nil {
		t.Fatalf("first offer failed: %v", err)
	}
	if _, err := svc.CreateOffer(context.Background(), 1, 20, "second"); !errors.Is(err, models.ErrAlreadyOffered) {
		t.Fatalf("expected ErrAlreadyOffered, got %v", err)
	}
}

func TestCreateOfferOnDecidedRequest(t *testing.T) {
	helper := 20
	store := &fakeOfferStore{offers: map[int]models.Offer{
		5: {ID: 5, RequestID: 1, OfferedBy: 20, Requester: 10, Status: models.OfferAccepted},
	}, nextID: 5}
	notifier := &fakeNotifier{}
	svc := newOfferService(store, map[int]models.Request{
		1: {ID: 1, CreatedBy: 10, Title: "Move a couch", Status: lifecycle.StatusInProgress, Helper: &helper},
	}, notifier)

	if _, err := svc.CreateOffer(context.Background(), 1, 30, "still available?"); !errors.Is(err, models.ErrRequestNotOpen) {
		t.Fatalf("expected ErrRequestNotOpen, got %v", err)
	}
	for _, offer := range store.offers {
		if offer.Status == models.OfferPending {
			t.Fatalf("no pending offer may exist beside an accepted one, got %+v", offer)
		}
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("rejected creation must not notify, got %+v", notifier.sent)
	}
}

func TestCreateOfferNotifiesRequester(t *testing.T) {
	store := &fakeOfferStore{}
	notifier := &fakeNotifier{}
	svc := newOfferService(store, map[int]models.Request{1: {ID: 1, CreatedBy: 10, Title: "Move a couch", Status: lifecycle.StatusOpen}}, notifier)

	offer, err := svc.CreateOffer(context.Background(), 1, 20, "got a van")
	if err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}
	if offer.Status != models.OfferPending {
		t.Fatalf("new offer must be pending, got %s", offer.Status)
	}
	if offer.Requester != 10 {
		t.Fatalf("requester must be denormalized from the request, got %d", offer.Requester)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	n := notifier.sent[0]
	if n.userID != 10 {
		t.Fatalf("notification must target the requester, got %d", n.userID)
	}
	if !strings.Contains(n.message, "Aset") || !strings.Contains(n.message, "Move a couch") {
		t.Fatalf("unexpected notification text %q", n.message)
	}
	if n.link != "/requests/1" {
		t.Fatalf("unexpected link %q", n.link)
	}
}

func TestRespondToOfferForbidden(t *testing.T) {
	store := &fakeOfferStore{offers: map[int]models.Offer{
		5: {ID: 5, RequestID: 1, OfferedBy: 20, Requester: 10, Status: models.OfferPending},
	}, nextID: 5}
	svc := newOfferService(store, map[int]models.Request{1: {ID: 1, CreatedBy: 10, Title: "Move a couch", Status: lifecycle.StatusOpen}}, &fakeNotifier{})

	// user 99 is the requester of a different request, not this offer's
	if _, err := svc.RespondToOffer(context.Background(), 5, 99, models.OfferAccepted); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if store.acceptCalled {
		t.Fatal("store must not be touched on a forbidden respond")
	}
}

func TestRespondToOfferInvalidDecision(t *testing.T) {
	store := &fakeOfferStore{offers: map[int]models.Offer{
		5: {ID: 5, RequestID: 1, OfferedBy: 20, Requester: 10, Status: models.OfferPending},
	}}
	svc := newOfferService(store, map[int]models.Request{1: {ID: 1, CreatedBy: 10}}, &fakeNotifier{})

	if _, err := svc.RespondToOffer(context.Background(), 5, 10, "maybe"); !errors.Is(err, models.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestRespondToOfferAccepted(t *testing.T) {
	store := &fakeOfferStore{offers: map[int]models.Offer{
		5: {ID: 5, RequestID: 1, OfferedBy: 20, Requester: 10, Status: models.OfferPending},
		6: {ID: 6, RequestID: 1, OfferedBy: 30, Requester: 10, Status: models.OfferPending},
	}, nextID: 6}
	notifier := &fakeNotifier{}
	svc := newOfferService(store, map[int]models.Request{1: {ID: 1, CreatedBy: 10, Title: "Move a couch", Status: lifecycle.StatusOpen}}, notifier)

	updated, err := svc.RespondToOffer(context.Background(), 5, 10, models.OfferAccepted)
	if err != nil {
		t.Fatalf("RespondToOffer: %v", err)
	}
	if updated.Status != models.OfferAccepted {
		t.Fatalf("expected accepted, got %s", updated.Status)
	}
	if !store.acceptCalled {
		t.Fatal("acceptance must run through the store transaction")
	}
	if store.offers[6].Status != models.OfferRejected {
		t.Fatalf("sibling pending offer must be rejected, got %s", store.offers[6].Status)
	}

	if len(notifier.sent) != 1 || notifier.sent[0].userID != 20 {
		t.Fatalf("accepted helper must be notified, got %+v", notifier.sent)
	}
	if !strings.Contains(notifier.sent[0].message, "accepted") {
		t.Fatalf("unexpected notification text %q", notifier.sent[0].message)
	}
}

func TestRespondToOfferRejected(t *testing.T) {
	store := &fakeOfferStore{offers: map[int]models.Offer{
		5: {ID: 5, RequestID: 1, OfferedBy: 20, Requester: 10, Status: models.OfferPending},
	}}
	notifier := &fakeNotifier{}
	svc := newOfferService(store, map[int]models.Request{1: {ID: 1, CreatedBy: 10, Title: "Move a couch", Status: lifecycle.StatusOpen}}, notifier)

	updated, err := svc.RespondToOffer(context.Background(), 5, 10, models.OfferRejected)
	if err != nil {
		t.Fatalf("RespondToOffer: %v", err)
	}
	if updated.Status != models.OfferRejected {
		t.Fatalf("expected rejected, got %s", updated.Status)
	}
	if !store.rejectCalled || store.acceptCalled {
		t.Fatal("rejection must not run the acceptance path")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].userID != 20 {
		t.Fatalf("rejected helper must be notified, got %+v", notifier.sent)
	}
}

func TestRespondToOfferAlreadyDecided(t *testing.T) {
	store := &fakeOfferStore{offers: map[int]models.Offer{
		5: {ID: 5, RequestID: 1, OfferedBy: 20, Requester: 10, Status: models.OfferAccepted},
	}}
	svc := newOfferService(store, map[int]models.Request{1: {ID: 1, CreatedBy: 10}}, &fakeNotifier{})

	if _, err := svc.RespondToOffer(context.Background(), 5, 10, models.OfferAccepted); !errors.Is(err, models.ErrOfferAlreadyDecided) {
		t.Fatalf("expected ErrOfferAlreadyDecided, got %v", err)
	}
}

func TestListOffersMissingRequest(t *testing.T) {
	svc := newOfferService(&fakeOfferStore{}, map[int]models.Request{}, &fakeNotifier{})
	if _, err := svc.ListOffers(context.Background(), 404); !errors.Is(err, models.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}
