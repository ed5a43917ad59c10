package zones

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadCSV reads zones from a file with the header name,lat,lon,radius,tags.
// Radius may be empty; tags are separated by ';'.
func LoadCSV(path string) ([]Zone, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zone file: %w", err)
	}
	defer file.Close()

	return ReadZones(file)
}

// ReadZones parses the zone CSV format
func ReadZones(r io.Reader) ([]Zone, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read zone header: %w", err)
	}

	var zones []Zone
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading zone CSV at line %d: %w", lineNum, err)
		}
		lineNum++

		if len(record) < 3 {
			return nil, fmt.Errorf("insufficient columns at line %d (expected at least 3, got %d)", lineNum, len(record))
		}

		lat, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude %q at line %d: %w", record[1], lineNum, err)
		}
		lon, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude %q at line %d: %w", record[2], lineNum, err)
		}

		zone := NewZone(strings.TrimSpace(record[0]), lat, lon)
		if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
			zone.Radius, err = strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid radius %q at line %d: %w", record[3], lineNum, err)
			}
		}
		if len(record) > 4 && strings.TrimSpace(record[4]) != "" {
			for _, tag := range strings.Split(record[4], ";") {
				if tag = strings.TrimSpace(tag); tag != "" {
					zone.Tags = append(zone.Tags, tag)
				}
			}
		}
		zones = append(zones, zone)
	}

	return zones, nil
}

// LoadPathsCSV reads transit paths from a file with the header from,to,weight
func LoadPathsCSV(path string) ([]TransitPath, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open path file: %w", err)
	}
	defer file.Close()

	return ReadPaths(file)
}

// ReadPaths parses the path CSV format
func ReadPaths(r io.Reader) ([]TransitPath, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read path header: %w", err)
	}

	var paths []TransitPath
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading path CSV at line %d: %w", lineNum, err)
		}
		lineNum++

		weight, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q at line %d: %w", record[2], lineNum, err)
		}
		paths = append(paths, TransitPath{
			From:   strings.TrimSpace(record[0]),
			To:     strings.TrimSpace(record[1]),
			Weight: weight,
		})
	}

	return paths, nil
}
