package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rail-ticket-reservation/internal/repository"
	"github.com/iliyamo/rail-ticket-reservation/internal/service"
)

// SearchHandler serves the public query surface: route resolution,
// registry listings, train timetables and remaining-seat counts.
type SearchHandler struct {
	Routes   *service.RouteService
	Registry *service.RegistryCache
	Stations *repository.StationRepo
	Journeys *repository.JourneyRepo
	Resv     *service.ReservationService
}

func NewSearchHandler(routes *service.RouteService, registry *service.RegistryCache, st *repository.StationRepo, j *repository.JourneyRepo, resv *service.ReservationService) *SearchHandler {
	return &SearchHandler{Routes: routes, Registry: registry, Stations: st, Journeys: j, Resv: resv}
}

type transferRouteResp struct {
	FirstTrain  string `json:"first_train"`
	ViaStation  string `json:"via_station"`
	SecondTrain string `json:"second_train"`
}

type journeyResp struct {
	StationIndex int     `json:"station_index"`
	Station      string  `json:"station"`
	Distance     int     `json:"distance"`
	ArriveTime   *string `json:"arrive_time"`
	DepartTime   *string `json:"depart_time"`
	ArriveDay    *int    `json:"arrive_day"`
	DepartDay    *int    `json:"depart_day"`
}

// Direct answers GET /v1/routes/direct?from=&to=.  An empty or equal
// "to" turns the query into a circular-line lookup.
func (h *SearchHandler) Direct(c echo.Context) error {
	from := c.QueryParam("from")
	if from == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	trains, err := h.Routes.DirectRoutes(ctx, from, c.QueryParam("to"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"trains": trains})
}

// Transfer answers GET /v1/routes/transfer?from=&to=.
func (h *SearchHandler) Transfer(c echo.Context) error {
	from, to := c.QueryParam("from"), c.QueryParam("to")
	if from == "" || to == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from and to required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	routes, err := h.Routes.TransferRoutes(ctx, from, to)
	if err != nil {
		return fail(c, err)
	}
	out := make([]transferRouteResp, 0, len(routes))
	for _, r := range routes {
		out = append(out, transferRouteResp{
			FirstTrain:  r.First,
			ViaStation:  r.Via.Name,
			SecondTrain: r.Second,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"routes": out})
}

// TrainJourneys lists the valid stops of one train in route order.
func (h *SearchHandler) TrainJourneys(c echo.Context) error {
	train := c.Param("number")
	ctx, cancel := reqCtx(c)
	defer cancel()

	stops, err := h.Journeys.StopsByTrain(ctx, train)
	if err != nil {
		return fail(c, err)
	}
	if len(stops) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
	}
	out := make([]journeyResp, 0, len(stops))
	for _, j := range stops {
		st, err := h.Stations.ByID(ctx, j.StationID)
		if err != nil {
			return fail(c, err)
		}
		out = append(out, journeyResp{
			StationIndex: j.StationIndex,
			Station:      st.Name,
			Distance:     j.Distance,
			ArriveTime:   j.ArriveTime,
			DepartTime:   j.DepartTime,
			ArriveDay:    j.ArriveDay,
			DepartDay:    j.DepartDay,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"train": train, "journeys": out})
}

// Remaining reports free seats of one carriage for one departure date.
func (h *SearchHandler) Remaining(c echo.Context) error {
	train := c.Param("number")
	carriage, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid carriage index"})
	}
	date, err := time.Parse(dateLayout, c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Resv.RemainingSeats(ctx, train, carriage, date)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"train":          train,
		"carriage_index": carriage,
		"date":           date.Format(dateLayout),
		"remaining":      n,
	})
}

// ----- registry listings -----

func (h *SearchHandler) ListStations(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if city := c.QueryParam("city"); city != "" {
		names, err := h.Stations.NamesByCity(ctx, city)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"stations": names})
	}
	names, err := h.Registry.Stations(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"stations": names})
}

func (h *SearchHandler) ListCities(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if province := c.QueryParam("province"); province != "" {
		names, err := h.Stations.CitiesByProvince(ctx, province)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"cities": names})
	}
	names, err := h.Registry.Cities(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cities": names})
}

func (h *SearchHandler) ListProvinces(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	names, err := h.Registry.Provinces(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"provinces": names})
}

func (h *SearchHandler) ListTrains(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	trains, err := h.Registry.TrainNumbers(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"trains": trains})
}
