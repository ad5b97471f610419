package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/queue"
	"github.com/hackgods/clinic-scheduling/internal/schedule"
	"github.com/hackgods/clinic-scheduling/internal/timeslot"
)

type doctor struct {
	id   string
	name string
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	doctors := makeDoctors(8)

	if err := seedAppointmentRequests(context.Background(), pool, doctors, 3); err != nil {
		log.Fatalf("seed appointment requests: %v", err)
	}
	if err := seedQueueItems(context.Background(), pool, doctors); err != nil {
		log.Fatalf("seed queue items: %v", err)
	}

	log.Println("seed complete")
}

func makeDoctors(count int) []doctor {
	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Pediatrics",
		"ENT",
	}

	doctors := make([]doctor, 0, count)
	for i := 0; i < count; i++ {
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		doctors = append(doctors, doctor{
			id:   uuid.NewString(),
			name: "Dr. " + gofakeit.LastName() + " (" + spec + ")",
		})
	}
	return doctors
}

// seedAppointmentRequests fills each doctor's next few days with
// back-to-back slots so seeded data never starts out double-booked.
func seedAppointmentRequests(ctx context.Context, pool *pgxpool.Pool, doctors []doctor, days int) error {
	types := []schedule.AppointmentType{
		schedule.TypeConsultation,
		schedule.TypeFollowUp,
		schedule.TypeRoutine,
		schedule.TypeSpecialist,
	}
	priorities := []schedule.Priority{
		schedule.PriorityLow,
		schedule.PriorityMedium,
		schedule.PriorityMedium,
		schedule.PriorityHigh,
	}
	sources := []string{"phone", "walk-in", "online", "referral"}

	total := 0
	for day := 0; day < days; day++ {
		date := time.Now().AddDate(0, 0, day).Format(timeslot.DateLayout)

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for _, doc := range doctors {
			perDoctor := gofakeit.Number(4, 10)
			startMin := 9 * 60

			for i := 0; i < perDoctor; i++ {
				duration := 30
				if gofakeit.Bool() {
					duration = 15
				}

				status := schedule.StatusPending
				switch gofakeit.Number(0, 3) {
				case 1:
					status = schedule.StatusApproved
				case 2:
					status = schedule.StatusConfirmed
				}

				_, err := tx.Exec(ctx, `
					INSERT INTO appointment_requests (
						id, patient_name, patient_phone, patient_email,
						doctor_id, doctor_name, visit_date, start_time, duration_min,
						type, status, symptoms, notes, priority, booking_source,
						created_at, updated_at, decline_reason
					)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), NULL, NULL)
				`,
					uuid.NewString(),
					gofakeit.Name(),
					gofakeit.Phone(),
					gofakeit.Email(),
					doc.id,
					doc.name,
					date,
					timeslot.FormatClock(startMin),
					duration,
					string(types[gofakeit.Number(0, len(types)-1)]),
					string(status),
					gofakeit.Sentence(6),
					"",
					string(priorities[gofakeit.Number(0, len(priorities)-1)]),
					sources[gofakeit.Number(0, len(sources)-1)],
				)
				if err != nil {
					_ = tx.Rollback(ctx)
					return err
				}

				// Leave the occasional gap so slot suggestions have
				// something to find.
				startMin += duration
				if gofakeit.Number(0, 3) == 0 {
					startMin += 15
				}
				total++
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
		log.Printf("appointment requests seeded for %s", date)
	}

	log.Printf("appointment requests seeded: %d", total)
	return nil
}

// seedQueueItems builds today's waiting room: a handful of checked-in
// patients holding contiguous positions plus some still scheduled.
func seedQueueItems(ctx context.Context, pool *pgxpool.Pool, doctors []doctor) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	waiting := gofakeit.Number(3, 6)
	scheduled := gofakeit.Number(2, 5)

	insert := func(item queue.Item) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO queue_items (
				id, patient_name, patient_phone, doctor_id, doctor_name,
				appointment_time, estimated_duration_min, status, priority,
				queue_position, check_in_time, check_out_time, estimated_call_time,
				created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		`,
			item.ID, item.PatientName, item.PatientPhone,
			item.DoctorID, item.DoctorName,
			item.AppointmentTime, item.EstimatedDurationMin,
			string(item.Status), string(item.Priority),
			item.QueuePosition, item.CheckInTime, item.CheckOutTime,
			item.EstimatedCallTime,
		)
		return err
	}

	startMin := 9 * 60
	for pos := 1; pos <= waiting; pos++ {
		doc := doctors[gofakeit.Number(0, len(doctors)-1)]
		checkIn := time.Now().Add(-time.Duration(waiting-pos) * 10 * time.Minute)

		if err := insert(queue.Item{
			ID:                   uuid.NewString(),
			PatientName:          gofakeit.Name(),
			PatientPhone:         gofakeit.Phone(),
			DoctorID:             doc.id,
			DoctorName:           doc.name,
			AppointmentTime:      timeslot.FormatClock(startMin),
			EstimatedDurationMin: 20,
			Status:               queue.StatusWaiting,
			Priority:             schedule.PriorityMedium,
			QueuePosition:        pos,
			CheckInTime:          &checkIn,
		}); err != nil {
			return err
		}
		startMin += 20
	}

	for i := 0; i < scheduled; i++ {
		doc := doctors[gofakeit.Number(0, len(doctors)-1)]

		if err := insert(queue.Item{
			ID:                   uuid.NewString(),
			PatientName:          gofakeit.Name(),
			PatientPhone:         gofakeit.Phone(),
			DoctorID:             doc.id,
			DoctorName:           doc.name,
			AppointmentTime:      timeslot.FormatClock(startMin),
			EstimatedDurationMin: 20,
			Status:               queue.StatusScheduled,
			Priority:             schedule.PriorityMedium,
		}); err != nil {
			return err
		}
		startMin += 20
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("queue items seeded: %d waiting, %d scheduled", waiting, scheduled)
	return nil
}
