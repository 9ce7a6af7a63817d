package offering

import "errors"

var (
	// ErrOfferingNotFound возвращается, когда услуга мастера не найдена
	ErrOfferingNotFound = errors.New("offering.repository: offering not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("offering.repository: failed to build query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("offering.repository: failed to scan row")
)
