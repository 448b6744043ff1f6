package handlers

import (
	"net/http"

	"clinicdesk/models"
	"clinicdesk/services/doctor"
	"clinicdesk/services/patient"
	"clinicdesk/utils"

	"github.com/gin-gonic/gin"
)

type PatientHandler struct {
	Service patient.PatientService
}

func NewPatientHandler(svc patient.PatientService) *PatientHandler {
	return &PatientHandler{Service: svc}
}

// CreatePatientHandler handles POST /api/patients. The medical record is
// created with the patient.
func (h *PatientHandler) CreatePatientHandler(c *gin.Context) {
	var in models.PatientInput
	if !bindJSON(c, &in) {
		return
	}
	profile, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, "Failed to create patient", err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// ListPatientsHandler handles GET /api/patients?search=&gender=.
func (h *PatientHandler) ListPatientsHandler(c *gin.Context) {
	patients, err := h.Service.List(c.Request.Context(), c.Query("search"), c.Query("gender"))
	if err != nil {
		utils.RespondError(c, "Failed to fetch patients", err)
		return
	}
	c.JSON(http.StatusOK, patients)
}

func (h *PatientHandler) GetPatientHandler(c *gin.Context) {
	profile, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, "Failed to fetch patient", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *PatientHandler) UpdatePatientHandler(c *gin.Context) {
	var in models.PatientInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.Service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, "Failed to update patient", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PatientHandler) DeletePatientHandler(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondError(c, "Failed to delete patient", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Patient deleted"})
}

func (h *PatientHandler) GetMedicalHandler(c *gin.Context) {
	med, err := h.Service.GetMedical(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, "Failed to fetch medical record", err)
		return
	}
	c.JSON(http.StatusOK, med)
}

func (h *PatientHandler) UpdateMedicalHandler(c *gin.Context) {
	var patch models.MedicalPatch
	if !bindJSON(c, &patch) {
		return
	}
	med, err := h.Service.UpdateMedical(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		utils.RespondError(c, "Failed to update medical record", err)
		return
	}
	c.JSON(http.StatusOK, med)
}

// AttachMediaHandler handles POST /api/patients/:id/medical/media with a
// multipart "file" field.
func (h *PatientHandler) AttachMediaHandler(c *gin.Context) {
	fileHeader, file, ok := openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	media, err := h.Service.AttachMedia(c.Request.Context(), c.Param("id"), patient.MediaUpload{
		Filename:    fileHeader.Filename,
		ContentType: contentType(fileHeader),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		utils.RespondError(c, "Failed to attach media", err)
		return
	}
	c.JSON(http.StatusCreated, media)
}

func (h *PatientHandler) ListMediaHandler(c *gin.Context) {
	media, err := h.Service.ListMedia(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, "Failed to fetch media", err)
		return
	}
	c.JSON(http.StatusOK, media)
}

type DoctorHandler struct {
	Service doctor.DoctorService
}

func NewDoctorHandler(svc doctor.DoctorService) *DoctorHandler {
	return &DoctorHandler{Service: svc}
}

func (h *DoctorHandler) CreateDoctorHandler(c *gin.Context) {
	var in models.DoctorInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, "Failed to create doctor", err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// ListDoctorsHandler handles GET /api/doctors. With ?name= it returns the
// single doctor whose display name matches.
func (h *DoctorHandler) ListDoctorsHandler(c *gin.Context) {
	if name := c.Query("name"); name != "" {
		d, err := h.Service.FindByName(c.Request.Context(), name)
		if err != nil {
			utils.RespondError(c, "Failed to find doctor", err)
			return
		}
		c.JSON(http.StatusOK, d)
		return
	}
	doctors, err := h.Service.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, "Failed to fetch doctors", err)
		return
	}
	c.JSON(http.StatusOK, doctors)
}

func (h *DoctorHandler) GetDoctorHandler(c *gin.Context) {
	d, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, "Failed to fetch doctor", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DoctorHandler) UpdateDoctorHandler(c *gin.Context) {
	var in models.DoctorInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.Service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, "Failed to update doctor", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DoctorHandler) DeleteDoctorHandler(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondError(c, "Failed to delete doctor", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Doctor deleted"})
}
