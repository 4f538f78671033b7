/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/skysolve
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package astrometry holds the small set of coordinate types shared
// across the WCS engine and the science handlers.
package astrometry

/*****************************************************************************************************************/

// ICRSEquatorialCoordinate is a sky position in the International
// Celestial Reference System: right ascension and declination, both
// in degrees.
type ICRSEquatorialCoordinate struct {
	RA  float64
	Dec float64
}

/*****************************************************************************************************************/
