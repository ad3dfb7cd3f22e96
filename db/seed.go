package db

import "github.com/nagarsevak/civicseva/models"

// seedComplaints is the demo dataset loaded when the snapshot slot is
// missing or unreadable.
func seedComplaints() map[string][]*models.Complaint {
	return map[string][]*models.Complaint{
		"u1": {
			{
				ID:          "c1",
				Title:       "Garbage not collected",
				Description: "Garbage has not been collected from our street for 3 days",
				Location:    "Gandhi Nagar, Street 5",
				Status:      models.StatusPending,
				Date:        "2025-04-10",
				UserID:      "u1",
				UserName:    "Amit Kumar",
				Images:      []string{"/placeholder.svg"},
				GeoLocation: &models.GeoLocation{
					Lat:      28.65,
					Lng:      77.22,
					Area:     "Gandhi Nagar",
					Street:   "Street 5",
					District: "Central Delhi",
				},
			},
		},
		"u2": {
			{
				ID:          "c2",
				Title:       "Broken street light",
				Description: "Street light at the corner is not working for a week",
				Location:    "Nehru Road, Junction 12",
				Status:      models.StatusInProgress,
				Date:        "2025-04-09",
				UserID:      "u2",
				UserName:    "Priya Sharma",
				Images:      []string{"/placeholder.svg"},
				AssignedTo:  "MO07",
				GeoLocation: &models.GeoLocation{
					Lat:      28.55,
					Lng:      77.25,
					Area:     "Nehru Road",
					Street:   "Junction 12",
					District: "South Delhi",
				},
				Comments: []models.Comment{
					{
						ID:       "cm1",
						Text:     "Complaint has been assigned to the electrical maintenance team",
						UserID:   "MO07",
						UserName: "Office Electrical",
						Date:     "2025-04-09",
					},
				},
			},
		},
		"u3": {
			{
				ID:           "c3",
				Title:        "Water leakage",
				Description:  "There is water leakage from the main pipe on our road",
				Location:     "Subhash Marg, Near Central Park",
				Status:       models.StatusCompleted,
				Date:         "2025-04-08",
				UserID:       "u3",
				UserName:     "Ravi Patel",
				Images:       []string{"/placeholder.svg"},
				AssignedTo:   "MO08",
				RepairImages: []string{"/placeholder.svg"},
				GeoLocation: &models.GeoLocation{
					Lat:      28.60,
					Lng:      77.20,
					Area:     "Subhash Marg",
					Street:   "Central Park Road",
					District: "Central Delhi",
				},
				Comments: []models.Comment{
					{
						ID:       "cm1",
						Text:     "Team has been dispatched",
						UserID:   "MO08",
						UserName: "Office Water Supply",
						Date:     "2025-04-08",
					},
					{
						ID:       "cm2",
						Text:     "Leakage fixed successfully",
						UserID:   "MO08",
						UserName: "Office Water Supply",
						Date:     "2025-04-08",
					},
					{
						ID:       "cm3",
						Text:     "Repair images added showing the fixed pipe",
						UserID:   "MO08",
						UserName: "Office Water Supply",
						Date:     "2025-04-08",
					},
				},
			},
		},
	}
}
