package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/neutralface-io/nfai-web/internal/auth"
	"github.com/neutralface-io/nfai-web/internal/gateway"
	"github.com/neutralface-io/nfai-web/internal/listing"
	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/neutralface-io/nfai-web/pkg/utils"
	"golang.org/x/sync/errgroup"
)

// DatasetItem is a listed dataset flagged with the caller's like.
type DatasetItem struct {
	models.Dataset
	Liked bool `json:"liked"`
}

// ListDatasets handles GET /datasets?topic=&license=&q=&sort=
func (h *Handler) ListDatasets(c *fiber.Ctx) error {
	ctx := c.UserContext()
	wallet := auth.Wallet(c)

	var f listing.Filter
	if err := c.QueryParser(&f); err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Invalid query", err.Error()))
	}
	key, _ := listing.ParseSortKey(c.Query("sort", string(listing.SortRecent)))

	var (
		datasets []models.Dataset
		liked    []uuid.UUID
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		datasets, err = h.Gateway.ListDatasets(egCtx, wallet, f, key)
		return err
	})
	eg.Go(func() error {
		var err error
		liked, err = h.Gateway.LikedSet(egCtx, wallet)
		return err
	})
	if err := eg.Wait(); err != nil {
		return utils.SendError(c, err)
	}

	likedSet := make(map[uuid.UUID]bool, len(liked))
	for _, id := range liked {
		likedSet[id] = true
	}
	items := make([]DatasetItem, len(datasets))
	for i, d := range datasets {
		items[i] = DatasetItem{Dataset: d, Liked: likedSet[d.ID]}
	}
	return utils.Success(c).WithData(items).Send()
}

// SearchDatasets handles GET /datasets/search?q=&limit=
func (h *Handler) SearchDatasets(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", listing.DefaultSearchLimit)
	found, err := h.Gateway.SearchDatasets(c.UserContext(), auth.Wallet(c), c.Query("q"), limit)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithData(found).Send()
}

func (h *Handler) GetDataset(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	d, err := h.Gateway.GetDataset(c.UserContext(), auth.Wallet(c), id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithData(d).Send()
}

func (h *Handler) CreateDataset(c *fiber.Ctx) error {
	var in models.DatasetInput
	if err := h.parseBody(c, &in); err != nil {
		return utils.SendError(c, err)
	}
	d, err := h.Gateway.CreateDataset(c.UserContext(), auth.Wallet(c), in)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithStatus(fiber.StatusCreated).WithMessage("Dataset created").WithData(d).Send()
}

func (h *Handler) UpdateDataset(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	var p models.DatasetPatch
	if err := h.parseBody(c, &p); err != nil {
		return utils.SendError(c, err)
	}
	d, err := h.Gateway.UpdateDataset(c.UserContext(), auth.Wallet(c), id, p)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithMessage("Dataset updated").WithData(d).Send()
}

func (h *Handler) UpdateTopics(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	var in models.TopicsInput
	if err := h.parseBody(c, &in); err != nil {
		return utils.SendError(c, err)
	}
	d, err := h.Gateway.UpdateTopics(c.UserContext(), auth.Wallet(c), id, in.Topics)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithMessage("Topics updated").WithData(d).Send()
}

func (h *Handler) DeleteDataset(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	if err := h.Gateway.DeleteDataset(c.UserContext(), auth.Wallet(c), id); err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithMessage("Dataset deleted").Send()
}

// UploadDatasetFile handles the multipart "file" field of POST /datasets/:id/file.
func (h *Handler) UploadDatasetFile(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "File is required", err.Error()))
	}
	f, err := fh.Open()
	if err != nil {
		return utils.SendError(c, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to read upload"))
	}
	defer f.Close()

	d, err := h.Gateway.UploadDatasetFile(c.UserContext(), auth.Wallet(c), id, gateway.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithMessage("File uploaded").WithData(d).Send()
}

func (h *Handler) ToggleLike(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}
	state, err := h.Gateway.ToggleLike(c.UserContext(), auth.Wallet(c), id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithData(state).Send()
}

func (h *Handler) LikedSet(c *fiber.Ctx) error {
	ids, err := h.Gateway.LikedSet(c.UserContext(), auth.Wallet(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithData(ids).Send()
}

func (h *Handler) ListTopics(c *fiber.Ctx) error {
	topics, err := h.Gateway.ListTopics(c.UserContext())
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.Success(c).WithData(topics).Send()
}
