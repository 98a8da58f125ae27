package cars

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"rentacar/internal/app/access"
	"rentacar/internal/app/dto"
	"rentacar/internal/app/handlers/support"
	"rentacar/internal/app/outbox"
	"rentacar/internal/app/uow"
	domaincars "rentacar/internal/domain/cars"
)

const (
	createCarKey       = "cars.create"
	updateCarKey       = "cars.update"
	setAvailabilityKey = "cars.availability.set"
	deleteCarKey       = "cars.delete"
	uploadPhotoKey     = "cars.photos.upload"
)

var (
	ErrUploaderUnavailable = errors.New("cars: photo storage unavailable")
	ErrPhotoRequired       = errors.New("cars: photo content required")
)

// PhotoUploader stores an image and returns its public URL.
type PhotoUploader interface {
	Upload(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) (string, error)
}

type CreateCarCommand struct {
	ID      string
	Details domaincars.Details
}

func (CreateCarCommand) Key() string               { return createCarKey }
func (CreateCarCommand) AccessLevel() access.Level { return access.AdminOnly }

type UpdateCarCommand struct {
	CarID   string `validate:"required"`
	Details domaincars.Details
}

func (UpdateCarCommand) Key() string               { return updateCarKey }
func (UpdateCarCommand) AccessLevel() access.Level { return access.AdminOnly }

type SetAvailabilityCommand struct {
	CarID     string `validate:"required"`
	Available bool
}

func (SetAvailabilityCommand) Key() string               { return setAvailabilityKey }
func (SetAvailabilityCommand) AccessLevel() access.Level { return access.AdminOnly }

type DeleteCarCommand struct {
	CarID string `validate:"required"`
}

func (DeleteCarCommand) Key() string               { return deleteCarKey }
func (DeleteCarCommand) AccessLevel() access.Level { return access.AdminOnly }

type UploadPhotoCommand struct {
	CarID       string `validate:"required"`
	FileName    string
	ContentType string    `validate:"omitempty,startswith=image/"`
	Size        int64     `validate:"gte=0,lte=10485760"`
	Reader      io.Reader `validate:"required"`
}

func (UploadPhotoCommand) Key() string               { return uploadPhotoKey }
func (UploadPhotoCommand) AccessLevel() access.Level { return access.AdminOnly }

// AdminHandler serves the fleet management commands.
type AdminHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Uploader   PhotoUploader
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *AdminHandler) Create(ctx context.Context, cmd CreateCarCommand) (dto.Car, error) {
	unit, ctx, commit, cleanup, err := support.WriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Car{}, err
	}
	defer cleanup()

	id := strings.TrimSpace(cmd.ID)
	if id == "" {
		id = uuid.NewString()
	}
	car, err := domaincars.NewCar(domaincars.CarID(id), cmd.Details, h.Clock.Now())
	if err != nil {
		return dto.Car{}, err
	}
	if err := h.save(ctx, unit, car, commit); err != nil {
		return dto.Car{}, err
	}
	h.logger().InfoContext(ctx, "car listed", "car_id", car.ID, "title", car.Title())
	return dto.MapCar(car), nil
}

func (h *AdminHandler) Update(ctx context.Context, cmd UpdateCarCommand) (dto.Car, error) {
	unit, ctx, commit, cleanup, err := support.WriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Car{}, err
	}
	defer cleanup()

	car, err := unit.Cars().ByID(ctx, domaincars.CarID(cmd.CarID))
	if err != nil {
		return dto.Car{}, err
	}
	if err := car.Update(cmd.Details, h.Clock.Now()); err != nil {
		return dto.Car{}, err
	}
	if err := h.save(ctx, unit, car, commit); err != nil {
		return dto.Car{}, err
	}
	return dto.MapCar(car), nil
}

func (h *AdminHandler) SetAvailability(ctx context.Context, cmd SetAvailabilityCommand) (dto.Car, error) {
	unit, ctx, commit, cleanup, err := support.WriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Car{}, err
	}
	defer cleanup()

	car, err := unit.Cars().ByID(ctx, domaincars.CarID(cmd.CarID))
	if err != nil {
		return dto.Car{}, err
	}
	if !car.SetAvailability(cmd.Available, h.Clock.Now()) {
		return dto.MapCar(car), nil
	}
	if err := h.save(ctx, unit, car, commit); err != nil {
		return dto.Car{}, err
	}
	h.logger().InfoContext(ctx, "car availability changed", "car_id", car.ID, "available", car.Available)
	return dto.MapCar(car), nil
}

func (h *AdminHandler) Delete(ctx context.Context, cmd DeleteCarCommand) (struct{}, error) {
	unit, ctx, commit, cleanup, err := support.WriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	defer cleanup()

	car, err := unit.Cars().ByID(ctx, domaincars.CarID(cmd.CarID))
	if err != nil {
		return struct{}{}, err
	}
	car.Remove(h.Clock.Now())
	if err := unit.Cars().Delete(ctx, car.ID); err != nil {
		return struct{}{}, err
	}
	if err := support.Record(ctx, h.Outbox, h.Encoder, car); err != nil {
		return struct{}{}, err
	}
	if err := commit(); err != nil {
		return struct{}{}, err
	}
	h.logger().InfoContext(ctx, "car removed", "car_id", car.ID)
	return struct{}{}, nil
}

func (h *AdminHandler) UploadPhoto(ctx context.Context, cmd UploadPhotoCommand) (dto.Car, error) {
	if h.Uploader == nil {
		return dto.Car{}, ErrUploaderUnavailable
	}
	if cmd.Reader == nil {
		return dto.Car{}, ErrPhotoRequired
	}
	unit, ctx, commit, cleanup, err := support.WriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Car{}, err
	}
	defer cleanup()

	car, err := unit.Cars().ByID(ctx, domaincars.CarID(cmd.CarID))
	if err != nil {
		return dto.Car{}, err
	}
	key := PhotoObjectKey(string(car.ID), cmd.FileName, uuid.NewString())
	url, err := h.Uploader.Upload(ctx, key, cmd.Reader, cmd.Size, cmd.ContentType)
	if err != nil {
		return dto.Car{}, fmt.Errorf("upload photo: %w", err)
	}
	car.SetImage(url, h.Clock.Now())
	if err := h.save(ctx, unit, car, commit); err != nil {
		return dto.Car{}, err
	}
	h.logger().InfoContext(ctx, "car photo uploaded", "car_id", car.ID, "object_key", key)
	return dto.MapCar(car), nil
}

// PhotoObjectKey is cars/<id>/<nonce><ext>, keeping only the extension of
// the client's file name.
func PhotoObjectKey(carID, fileName, nonce string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	return path.Join("cars", carID, nonce+ext)
}

func (h *AdminHandler) save(ctx context.Context, unit uow.UnitOfWork, car *domaincars.Car, commit func() error) error {
	if err := unit.Cars().Save(ctx, car); err != nil {
		return err
	}
	if err := support.Record(ctx, h.Outbox, h.Encoder, car); err != nil {
		return err
	}
	return commit()
}

func (h *AdminHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
