package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
)

// MinFarmSize is the smallest farm accepted for registration, in acres
const MinFarmSize = 0.1

// ValidateCoordinates checks a WGS84 latitude/longitude pair
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return apperrors.NewValidationError("Invalid coordinates provided").WithDetails(map[string]interface{}{
			"latitude":  lat,
			"longitude": lng,
		})
	}
	return nil
}

// ValidateFarmSize rejects farms below MinFarmSize acres
func ValidateFarmSize(acres float64) error {
	if acres < MinFarmSize {
		return apperrors.NewValidationError(fmt.Sprintf("Farm size must be at least %.1f acres", MinFarmSize))
	}
	return nil
}

// NewFarmCode builds the public farm identifier from the registration time
// and a random suffix: FARM-<base36 millis>-<6 chars>.
func NewFarmCode(at time.Time, random string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(random, "-", ""))
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return "FARM-" + strings.ToUpper(strconv.FormatInt(at.UnixMilli(), 36)) + "-" + suffix
}
