package services

import "promptdesk-backend/internal/models"

// scienceBank fills quizzes when the providers fail or return too few valid
// questions.
var scienceBank = []models.Question{
	{QuestionText: "What gas do plants absorb from the air for photosynthesis?", Options: []string{"Oxygen", "Carbon dioxide", "Nitrogen", "Hydrogen"}, CorrectAnswer: "Carbon dioxide", Explanation: "Plants take in carbon dioxide and release oxygen."},
	{QuestionText: "What is the chemical symbol for water?", Options: []string{"H2O", "CO2", "O2", "NaCl"}, CorrectAnswer: "H2O", Explanation: "Water is two hydrogen atoms bonded to one oxygen atom."},
	{QuestionText: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Jupiter", "Mars", "Mercury"}, CorrectAnswer: "Mars", Explanation: "Iron oxide on its surface gives Mars its red colour."},
	{QuestionText: "What part of the cell contains the genetic material?", Options: []string{"Nucleus", "Ribosome", "Cell membrane", "Vacuole"}, CorrectAnswer: "Nucleus", Explanation: "DNA is stored in the nucleus of eukaryotic cells."},
	{QuestionText: "What force keeps the planets in orbit around the Sun?", Options: []string{"Magnetism", "Friction", "Gravity", "Electricity"}, CorrectAnswer: "Gravity", Explanation: "The Sun's gravity pulls the planets into curved orbits."},
	{QuestionText: "What is the boiling point of water at sea level in Celsius?", Options: []string{"90", "100", "110", "120"}, CorrectAnswer: "100", Explanation: "At standard pressure water boils at 100 °C."},
	{QuestionText: "Which organelle produces most of a cell's energy?", Options: []string{"Golgi apparatus", "Mitochondrion", "Lysosome", "Chloroplast"}, CorrectAnswer: "Mitochondrion", Explanation: "Mitochondria produce ATP through cellular respiration."},
	{QuestionText: "What is the most abundant gas in Earth's atmosphere?", Options: []string{"Oxygen", "Argon", "Carbon dioxide", "Nitrogen"}, CorrectAnswer: "Nitrogen", Explanation: "Nitrogen makes up about 78% of the atmosphere."},
	{QuestionText: "What particle has a negative electric charge?", Options: []string{"Proton", "Neutron", "Electron", "Nucleus"}, CorrectAnswer: "Electron", Explanation: "Electrons carry a negative charge; protons are positive."},
	{QuestionText: "What is the speed of light in a vacuum, approximately?", Options: []string{"300,000 km/s", "150,000 km/s", "30,000 km/s", "3,000 km/s"}, CorrectAnswer: "300,000 km/s", Explanation: "Light travels about 299,792 km every second."},
	{QuestionText: "Which blood cells help fight infection?", Options: []string{"Red blood cells", "White blood cells", "Platelets", "Plasma"}, CorrectAnswer: "White blood cells", Explanation: "White blood cells are part of the immune system."},
	{QuestionText: "What is the centre of an atom called?", Options: []string{"Shell", "Orbit", "Nucleus", "Core cloud"}, CorrectAnswer: "Nucleus", Explanation: "Protons and neutrons sit in the nucleus."},
	{QuestionText: "Which process turns liquid water into vapour?", Options: []string{"Condensation", "Evaporation", "Freezing", "Precipitation"}, CorrectAnswer: "Evaporation", Explanation: "Heat gives water molecules enough energy to escape as vapour."},
	{QuestionText: "What is the pH of pure water?", Options: []string{"5", "7", "9", "14"}, CorrectAnswer: "7", Explanation: "Pure water is neutral, with a pH of 7."},
	{QuestionText: "Which layer of Earth lies directly beneath the crust?", Options: []string{"Inner core", "Outer core", "Mantle", "Lithosphere"}, CorrectAnswer: "Mantle", Explanation: "The mantle sits between the crust and the core."},
	{QuestionText: "What type of energy does a moving car have?", Options: []string{"Potential", "Kinetic", "Chemical", "Nuclear"}, CorrectAnswer: "Kinetic", Explanation: "Kinetic energy is the energy of motion."},
	{QuestionText: "What do we call animals that eat only plants?", Options: []string{"Carnivores", "Omnivores", "Herbivores", "Decomposers"}, CorrectAnswer: "Herbivores", Explanation: "Herbivores feed on plants alone."},
	{QuestionText: "Which element has the atomic number 1?", Options: []string{"Helium", "Hydrogen", "Lithium", "Carbon"}, CorrectAnswer: "Hydrogen", Explanation: "Hydrogen has a single proton."},
	{QuestionText: "What is the unit of electrical resistance?", Options: []string{"Volt", "Ampere", "Ohm", "Watt"}, CorrectAnswer: "Ohm", Explanation: "Resistance is measured in ohms."},
	{QuestionText: "Which molecule carries genetic information in most living things?", Options: []string{"ATP", "DNA", "Glucose", "Protein"}, CorrectAnswer: "DNA", Explanation: "DNA encodes the instructions for building an organism."},
}
