package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const requestsGeoKey = "requests:geo"

// GeoIndex keeps request coordinates in a Redis GEO set so nearby lookups
// do not scan the requests table. The SQL store stays the source of truth;
// the index is best effort and rebuildable.
type GeoIndex struct {
	rdb *redis.Client
}

func NewGeoIndex(rdb *redis.Client) *GeoIndex {
	return &GeoIndex{rdb: rdb}
}

func memberName(requestID int) string {
	return fmt.Sprintf("request:%d", requestID)
}

func parseMember(member string) (int, error) {
	parts := strings.Split(member, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid member %q", member)
	}
	return strconv.Atoi(parts[1])
}

func (g *GeoIndex) Add(ctx context.Context, requestID int, lon, lat float64) error {
	return g.rdb.GeoAdd(ctx, requestsGeoKey, &redis.GeoLocation{
		Name:      memberName(requestID),
		Longitude: lon,
		Latitude:  lat,
	}).Err()
}

func (g *GeoIndex) Remove(ctx context.Context, requestID int) error {
	return g.rdb.ZRem(ctx, requestsGeoKey, memberName(requestID)).Err()
}

// Nearby returns request ids within radiusKm sorted by distance (ascending),
// with the distance in km keyed by id.
func (g *GeoIndex) Nearby(ctx context.Context, lon, lat, radiusKm float64, limit int) ([]int, map[int]float64, error) {
	res, err := g.rdb.GeoSearchLocation(ctx, requestsGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  lon,
			Latitude:   lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      limit,
		},
		WithDist: true,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	ids := make([]int, 0, len(res))
	dists := make(map[int]float64, len(res))
	for _, item := range res {
		id, err := parseMember(item.Name)
		if err != nil {
			continue
		}
		ids = append(ids, id)
		dists[id] = item.Dist
	}
	return ids, dists, nil
}
