package cars_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	carsapp "rentacar/internal/app/handlers/cars"
	domaincars "rentacar/internal/domain/cars"
	"rentacar/internal/infra/storage/memory"
)

type stubUploader struct {
	key  string
	body []byte
}

func (s *stubUploader) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.key, s.body = key, body
	return "https://cdn.example.com/" + key, nil
}

func details(brand, model string, daily int64) domaincars.Details {
	return domaincars.Details{
		Brand:    brand,
		Model:    model,
		Year:     2021,
		Category: domaincars.CategorySedan,
		Seats:    5,
		Rates:    domaincars.Rates{Daily: daily, Weekly: daily * 6, Monthly: daily * 24},
		Location: domaincars.Location{District: "Colombo", City: "Nugegoda"},
	}
}

func newAdmin(store *memory.Store, uploader carsapp.PhotoUploader) *carsapp.AdminHandler {
	return &carsapp.AdminHandler{
		UoWFactory: store.Factory(),
		Outbox:     store.Outbox,
		Uploader:   uploader,
		Clock:      func() time.Time { return time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC) },
	}
}

func TestAdminManagesFleet(t *testing.T) {
	store := memory.NewStore()
	h := newAdmin(store, nil)
	ctx := context.Background()

	created, err := h.Create(ctx, carsapp.CreateCarCommand{ID: "axio", Details: details("Toyota", "Axio", 10000)})
	require.NoError(t, err)
	assert.Equal(t, "Toyota Axio 2021", created.Title)
	assert.Equal(t, "LKR", created.Currency)
	assert.True(t, created.Available)
	assert.Equal(t, 1, store.Outbox.Pending())

	_, err = h.Create(ctx, carsapp.CreateCarCommand{Details: domaincars.Details{Model: "Vezel"}})
	assert.ErrorIs(t, err, domaincars.ErrBrandRequired)

	updated, err := h.Update(ctx, carsapp.UpdateCarCommand{CarID: "axio", Details: details("Toyota", "Axio", 11000)})
	require.NoError(t, err)
	assert.Equal(t, int64(11000), updated.Rates.Daily)

	hidden, err := h.SetAvailability(ctx, carsapp.SetAvailabilityCommand{CarID: "axio", Available: false})
	require.NoError(t, err)
	assert.False(t, hidden.Available)

	_, err = h.Delete(ctx, carsapp.DeleteCarCommand{CarID: "axio"})
	require.NoError(t, err)
	_, err = store.Cars.ByID(ctx, "axio")
	assert.ErrorIs(t, err, domaincars.ErrCarNotFound)
	assert.Equal(t, 4, store.Outbox.Pending())

	_, err = h.Delete(ctx, carsapp.DeleteCarCommand{CarID: "axio"})
	assert.ErrorIs(t, err, domaincars.ErrCarNotFound)
}

func TestUploadPhotoStoresURL(t *testing.T) {
	store := memory.NewStore()
	uploader := &stubUploader{}
	h := newAdmin(store, uploader)
	ctx := context.Background()
	_, err := h.Create(ctx, carsapp.CreateCarCommand{ID: "axio", Details: details("Toyota", "Axio", 10000)})
	require.NoError(t, err)

	car, err := h.UploadPhoto(ctx, carsapp.UploadPhotoCommand{
		CarID:       "axio",
		FileName:    "Front.JPG",
		ContentType: "image/jpeg",
		Size:        4,
		Reader:      bytes.NewReader([]byte("jpeg")),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+uploader.key, car.ImageURL)
	assert.Regexp(t, `^cars/axio/[0-9a-f-]+\.jpg$`, uploader.key)
	assert.Equal(t, []byte("jpeg"), uploader.body)

	_, err = newAdmin(store, nil).UploadPhoto(ctx, carsapp.UploadPhotoCommand{CarID: "axio", Reader: bytes.NewReader(nil)})
	assert.ErrorIs(t, err, carsapp.ErrUploaderUnavailable)
}

func TestSearchFiltersAndSorts(t *testing.T) {
	store := memory.NewStore()
	h := newAdmin(store, nil)
	ctx := context.Background()
	for id, d := range map[string]domaincars.Details{
		"axio":  details("Toyota", "Axio", 10000),
		"prius": details("Toyota", "Prius", 14000),
		"alto":  details("Suzuki", "Alto", 5000),
	} {
		_, err := h.Create(ctx, carsapp.CreateCarCommand{ID: id, Details: d})
		require.NoError(t, err)
	}
	_, err := h.SetAvailability(ctx, carsapp.SetAvailabilityCommand{CarID: "prius", Available: false})
	require.NoError(t, err)

	search := &carsapp.SearchCarsHandler{UoWFactory: store.Factory()}
	res, err := search.Handle(ctx, carsapp.SearchCarsQuery{Params: domaincars.SearchParams{Sort: domaincars.SortByPriceDesc}})
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, []string{"prius", "axio", "alto"}, []string{res.Items[0].ID, res.Items[1].ID, res.Items[2].ID})

	res, err = search.Handle(ctx, carsapp.SearchCarsQuery{Params: domaincars.SearchParams{Query: "toyota", OnlyAvailable: true}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "axio", res.Items[0].ID)

	get := &carsapp.GetCarHandler{UoWFactory: store.Factory()}
	_, err = get.Handle(ctx, carsapp.GetCarQuery{CarID: "missing"})
	assert.ErrorIs(t, err, domaincars.ErrCarNotFound)
}

func TestPhotoObjectKey(t *testing.T) {
	assert.Equal(t, "cars/c1/n.png", carsapp.PhotoObjectKey("c1", " shot.PNG ", "n"))
	assert.Equal(t, "cars/c1/n", carsapp.PhotoObjectKey("c1", "", "n"))
}
